package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botdeck/backend/internal/config"
	"botdeck/backend/internal/handler"
	"botdeck/backend/internal/middleware"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/service"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/jwt"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting BotDeck Backend...")
	log.Infof("Environment: %s", cfg.Server.Env)

	// Initialize Redis
	log.Info("Connecting to Redis...")
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	log.Info("✓ Redis connected")

	// Set Gin mode
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Apply middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimit.RequestsPerMinute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "Redis connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"redis":  "connected",
		})
	})

	// Initialize JWT manager
	jwtManager := jwt.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// Initialize Binance client
	binanceClient := binance.NewClient(cfg.Binance.APIURL)

	// Initialize repositories
	userRepo := repository.NewUserRepository(redisClient)
	apiKeyRepo := repository.NewAPIKeyRepository(redisClient)
	botConfigRepo := repository.NewBotConfigRepository(redisClient)
	backtestRepo := repository.NewBacktestRepository(redisClient)
	orderRepo := repository.NewOrderRepository(redisClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, userRepo, binanceClient, cfg.Encryption.Key)
	notificationService := service.NewNotificationService(redisClient)
	botService := service.NewBotService(botConfigRepo)
	botRuntime := service.NewBotRuntime(botConfigRepo, orderRepo, apiKeyService, binanceClient, notificationService)
	botService.SetRuntime(botRuntime)
	backtestService := service.NewBacktestService(backtestRepo, botConfigRepo, binanceClient, cfg.Backtest)
	marketService := service.NewMarketService(binanceClient, redisClient, notificationService, cfg.Market)
	orderService := service.NewOrderService(orderRepo, apiKeyService, binanceClient, notificationService)

	// Initialize WebSocket hub
	wsHub := service.NewWSHub(redisClient.GetClient())
	go wsHub.Run()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go wsHub.StartPubSubListener(hubCtx)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService)
	botHandler := handler.NewBotHandler(botService, botRuntime)
	backtestHandler := handler.NewBacktestHandler(backtestService)
	marketHandler := handler.NewMarketHandler(marketService)
	orderHandler := handler.NewOrderHandler(orderService)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pong",
				"time":    time.Now().Unix(),
			})
		})

		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.AuthRateLimit(redisClient, cfg.RateLimit.AuthRequestsPerMinute), authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthMiddleware(authService), authHandler.Logout)
			auth.GET("/me", middleware.AuthMiddleware(authService), authHandler.GetMe)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(authService))
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.POST("/password", userHandler.ChangePassword)

			// Admin only routes
			admin := users.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("", userHandler.ListUsers)
				admin.POST("", userHandler.CreateUser)
				admin.GET("/:id", userHandler.GetUser)
				admin.PUT("/:id", userHandler.UpdateUser)
				admin.DELETE("/:id", userHandler.DeleteUser)
				admin.POST("/:id/reset-password", userHandler.ResetPassword)
			}
		}

		// Per-user settings and API keys
		user := v1.Group("/user")
		user.Use(middleware.AuthMiddleware(authService))
		{
			user.GET("/settings", userHandler.GetSettings)
			user.PUT("/settings", userHandler.UpdateSettings)
			user.GET("/account", apiKeyHandler.GetAccountInfo)

			apiKeys := user.Group("/api-keys")
			{
				apiKeys.POST("", apiKeyHandler.Create)
				apiKeys.GET("", apiKeyHandler.List)
				apiKeys.DELETE("/:id", apiKeyHandler.Delete)
				apiKeys.POST("/:id/validate", apiKeyHandler.Validate)
			}
		}

		// Bot routes
		bots := v1.Group("/bots")
		bots.Use(middleware.AuthMiddleware(authService))
		{
			bots.POST("/configs", botHandler.CreateConfig)
			bots.GET("/configs", botHandler.ListConfigs)
			bots.GET("/configs/:id", botHandler.GetConfig)
			bots.PUT("/configs/:id", botHandler.UpdateConfig)
			bots.DELETE("/configs/:id", botHandler.DeleteConfig)

			bots.POST("/:id/start", botHandler.StartBot)
			bots.POST("/:id/stop", botHandler.StopBot)
			bots.GET("/:id/status", botHandler.GetBotStatus)
			bots.GET("/status", botHandler.GetAllBotStatus)
		}

		// Backtest routes
		backtest := v1.Group("/backtest")
		backtest.Use(middleware.AuthMiddleware(authService))
		{
			backtest.POST("/:config_id", backtestHandler.RunBacktest)
			backtest.GET("/results", backtestHandler.ListResults)
			backtest.GET("/results/:id", backtestHandler.GetResult)
			backtest.DELETE("/results/:id", backtestHandler.DeleteResult)
		}

		// Market data routes
		market := v1.Group("/market")
		market.Use(middleware.AuthMiddleware(authService))
		{
			market.GET("/price/:symbol", marketHandler.GetPrice)
			market.GET("/prices/current", marketHandler.GetPrices)
			market.GET("/klines/:symbol", marketHandler.GetKlines)
			market.GET("/heatmap", marketHandler.GetHeatmap)
		}

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthMiddleware(authService))
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:symbol/:order_id", orderHandler.GetOrderStatus)
			orders.DELETE("/:symbol/:order_id", orderHandler.CancelOrder)
		}
	}

	// WebSocket endpoint (accepts the token via query param for browser clients)
	router.GET("/ws", middleware.AuthMiddleware(authService), wsHub.ServeWS)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", err)
		}
	}()

	log.Info("✓ Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop running bots before closing connections
	botRuntime.StopAll()
	notificationService.Stop()
	hubCancel()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", err)
	}

	log.Info("Server exited")
}
