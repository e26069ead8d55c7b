package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/agents"
	"github.com/employeevirtual/backend/internal/api/handlers"
	"github.com/employeevirtual/backend/internal/cache/redis"
	"github.com/employeevirtual/backend/internal/chat"
	"github.com/employeevirtual/backend/internal/dashboard"
	"github.com/employeevirtual/backend/internal/files"
	"github.com/employeevirtual/backend/internal/flows"
	"github.com/employeevirtual/backend/internal/llm"
	"github.com/employeevirtual/backend/internal/metadata"
	"github.com/employeevirtual/backend/internal/metrics"
	"github.com/employeevirtual/backend/internal/middleware/auth"
	"github.com/employeevirtual/backend/internal/middleware/ratelimit"
	"github.com/employeevirtual/backend/internal/middleware/security"
	"github.com/employeevirtual/backend/internal/middleware/validation"
	"github.com/employeevirtual/backend/internal/orion"
	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/users"
	"github.com/employeevirtual/backend/pkg/config"
	appLogger "github.com/employeevirtual/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting EmployeeVirtual API Server")

	dbClient, err := database.NewClient(cfg.Database.Path)
	if err != nil {
		appLogger.Fatal("Failed to create database client", zap.Error(err))
	}
	defer dbClient.Close()

	err = dbClient.Migrate()
	if err != nil {
		appLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	var statsCache dashboard.StatsCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			statsCache = redisClient
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.ExtractionModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	orionClient := orion.NewClient(cfg.Orion.BaseURL, cfg.Orion.APIKey, cfg.Orion.Bucket, cfg.Orion.TimeoutSec)

	userService := users.NewService(dbClient)
	agentService := agents.NewService(dbClient)
	flowService := flows.NewService(dbClient)
	fileService := files.NewService(dbClient, orionClient)
	chatService := chat.NewService(dbClient, llmClient)
	metadataService := metadata.NewService(dbClient, llmClient)
	dashboardService := dashboard.NewService(dbClient, statsCache, time.Duration(cfg.Dashboard.CacheTTLSec)*time.Second)

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(metrics.Middleware())
	app.Use(validation.Middleware(validation.Config{MaxBodySize: cfg.Server.BodyLimit}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	userHandler := handlers.NewUserHandler(userService)
	agentHandler := handlers.NewAgentHandler(agentService)
	flowHandler := handlers.NewFlowHandler(flowService)
	fileHandler := handlers.NewFileHandler(fileService)
	chatHandler := handlers.NewChatHandler(chatService)
	metadataHandler := handlers.NewMetadataHandler(metadataService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	wsHandler := handlers.NewWebSocketHandler(chatService)

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})
	api.Get("/metrics", metrics.MetricsHandler())

	api.Post("/users", userHandler.Register)

	// Routes registered below this point require a bearer token.
	api.Use(auth.Middleware(auth.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
	}))

	api.Get("/users/me", userHandler.GetMe)
	api.Put("/users/me", userHandler.UpdateMe)
	api.Delete("/users/me", userHandler.DeleteMe)
	api.Get("/users/:id", userHandler.GetByID)

	api.Post("/agents", agentHandler.Create)
	api.Get("/agents", agentHandler.List)
	api.Get("/agents/:id", agentHandler.Get)
	api.Put("/agents/:id", agentHandler.Update)
	api.Delete("/agents/:id", agentHandler.Delete)

	api.Post("/flows", flowHandler.Create)
	api.Get("/flows", flowHandler.List)
	api.Get("/flows/:id", flowHandler.Get)
	api.Put("/flows/:id", flowHandler.Update)
	api.Delete("/flows/:id", flowHandler.Delete)
	api.Post("/flows/:id/tags", flowHandler.AddTag)
	api.Delete("/flows/:id/tags/:tag", flowHandler.RemoveTag)
	api.Post("/flows/:id/execute", flowHandler.Execute)
	api.Get("/flows/:id/executions", flowHandler.ListExecutions)

	api.Post("/files", fileHandler.Upload)
	api.Get("/files", fileHandler.List)
	api.Get("/files/:id", fileHandler.Get)
	api.Patch("/files/:id", fileHandler.Update)
	api.Delete("/files/:id", fileHandler.Delete)
	api.Get("/files/:id/processing", fileHandler.ListProcessing)

	api.Post("/chat/sessions", chatHandler.CreateSession)
	api.Get("/chat/sessions", chatHandler.ListSessions)
	api.Get("/chat/sessions/:id", chatHandler.GetSession)
	api.Patch("/chat/sessions/:id", chatHandler.UpdateSession)
	api.Delete("/chat/sessions/:id", chatHandler.DeleteSession)
	api.Get("/chat/sessions/:id/messages", chatHandler.ListMessages)
	api.Post("/chat/sessions/:id/messages", chatHandler.SendMessage)

	api.Post("/metadata/extract", metadataHandler.Extract)
	api.Get("/metadata", metadataHandler.List)
	api.Get("/metadata/:id", metadataHandler.Get)
	api.Delete("/metadata/:id", metadataHandler.Delete)

	api.Get("/dashboard/stats", dashboardHandler.Stats)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
