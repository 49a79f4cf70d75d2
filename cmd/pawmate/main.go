package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pawmate/internal/api"
	"pawmate/internal/api/handlers"
	"pawmate/internal/repository"
	"pawmate/internal/service"
	"pawmate/pkg/config"
	"pawmate/pkg/logger"
	"pawmate/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration; invalid thresholds fail here, before serving
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting pawmate service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	// Initialize repositories
	knowledgeRepo := repository.NewKnowledgeRepository(db, appLogger)
	embeddingRepo := repository.NewEmbeddingRepository(db, appLogger)
	chatRepo := repository.NewChatRepository(db, appLogger)

	// Initialize services
	embedder, err := service.NewOpenAIEmbedder(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding provider", zap.Error(err))
	}

	embeddingService := service.NewEmbeddingService(
		embedder, embeddingRepo, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.Timeout, appLogger,
	)

	corpusService := service.NewCorpusService(knowledgeRepo, embeddingService, appLogger)
	if err := corpusService.Load(ctx); err != nil {
		// Serve anyway: retrieval degrades to keyword scoring until a reload
		appLogger.Warn("Initial corpus load failed", zap.Error(err))
	}

	generator, err := service.NewGigaChatGenerator(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize generative provider", zap.Error(err))
	}
	defer generator.Close()

	classifier := service.NewIntentClassifier(&cfg.Retrieval)
	searchEngine := service.NewSearchEngine(cfg.Retrieval.LowThreshold, cfg.Retrieval.TopK)

	chatService := service.NewChatService(
		classifier,
		embeddingService,
		corpusService,
		searchEngine,
		generator,
		chatRepo,
		&cfg.Retrieval,
		cfg.GigaChat.Timeout,
		appLogger,
	)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(chatService, appLogger)
	knowledgeHandler := handlers.NewKnowledgeHandler(corpusService, appLogger)

	// Setup router
	app := api.SetupRouter(chatHandler, knowledgeHandler, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
