package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"botdeck/backend/internal/config"
	"botdeck/backend/pkg/redis"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

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

	ctx := context.Background()

	patterns := []struct {
		label   string
		pattern string
	}{
		{"users", redis.UserKey("*")},
		{"bot configs", redis.BotConfigKey("*")},
		{"bot states", redis.BotStateKey("*")},
		{"backtest results", redis.BacktestResultKey("*")},
		{"orders", redis.OrderKey("*")},
		{"api keys", redis.APIKeyKey("*")},
	}

	for _, p := range patterns {
		keys, err := redisClient.Keys(ctx, p.pattern)
		if err != nil {
			log.Fatalf("Failed to scan %s keys: %v", p.label, err)
		}
		fmt.Printf("%-18s %4d keys (pattern %s)\n", p.label, len(keys), p.pattern)
		for i := 0; i < len(keys) && i < 3; i++ {
			fmt.Println("  -", keys[i])
		}
	}
}
