package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"botdeck/backend/internal/config"
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/pkg/crypto"
	"botdeck/backend/pkg/redis"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize Redis
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(redisClient)
	botConfigRepo := repository.NewBotConfigRepository(redisClient)

	username := "demo"
	password := "demo1234"
	email := "demo@botdeck.local"

	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	ctx := context.Background()

	user, _ := userRepo.GetByUsername(ctx, username)
	if user != nil {
		fmt.Printf("User %s already exists. Updating password...\n", username)
		user.PasswordHash = passwordHash
		user.Status = model.StatusActive
		if err := userRepo.Update(ctx, user); err != nil {
			log.Fatalf("Failed to update user: %v", err)
		}
	} else {
		user = &model.User{
			ID:           uuid.New().String(),
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         model.RoleAdmin,
			Status:       model.StatusActive,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("✓ Demo user created:\n")
		fmt.Printf("  Username: %s\n", username)
		fmt.Printf("  Password: %s\n", password)
	}

	// One example configuration per bot type
	configs := []*model.BotConfig{
		{
			UserID:  user.ID,
			BotType: model.BotTypeMomentum,
			Name:    "BTC Momentum",
			Symbol:  "BTCUSDT",
			Settings: map[string]interface{}{
				"rsi_period":         14.0,
				"rsi_oversold":       30.0,
				"rsi_overbought":     70.0,
				"ema_short_period":   9.0,
				"ema_long_period":    21.0,
				"trade_amount_quote": 100.0,
			},
		},
		{
			UserID:  user.ID,
			BotType: model.BotTypeGrid,
			Name:    "ETH Grid",
			Symbol:  "ETHUSDT",
			Settings: map[string]interface{}{
				"lower_price":      2000.0,
				"upper_price":      3000.0,
				"num_grids":        10.0,
				"grid_mode":        "arithmetic",
				"investment_quote": 500.0,
			},
		},
		{
			UserID:  user.ID,
			BotType: model.BotTypeDCA,
			Name:    "BTC Weekly DCA",
			Symbol:  "BTCUSDT",
			Settings: map[string]interface{}{
				"order_amount_quote":   50.0,
				"buy_interval_seconds": 604800.0,
			},
		},
	}

	existing, err := botConfigRepo.ListByUser(ctx, user.ID)
	if err != nil {
		log.Fatalf("Failed to list bot configs: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("User already has %d bot configuration(s), skipping seed\n", len(existing))
		return
	}

	for _, bc := range configs {
		if err := botConfigRepo.Create(ctx, bc); err != nil {
			log.Fatalf("Failed to create bot config %q: %v", bc.Name, err)
		}
		fmt.Printf("✓ Created %s configuration %q (%s)\n", bc.BotType, bc.Name, bc.ID)
	}
}
