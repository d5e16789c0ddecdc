package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/api/handlers"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/api/routes"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/config"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/service/chat"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/service/window"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/interfaces"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/memory"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/postgres"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/pkg/llm"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/pkg/llm/providers"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		panic(fmt.Sprintf("Failed to setup logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting chat session server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_url", maskDatabaseURL(cfg.Database.URL)),
		zap.Int("max_conversation_tokens", cfg.Chat.MaxConversationTokens),
	)

	store, cleanup, err := setupStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer cleanup()

	// Completion provider
	factory := providers.NewFactory(logger)
	provider, err := factory.CreateProvider(providers.Config{
		Provider:              cfg.LLM.Provider,
		BaseURL:               cfg.LLM.BaseURL,
		APIKey:                cfg.LLM.APIKey,
		Model:                 cfg.LLM.Model,
		Timeout:               cfg.LLM.Timeout,
		MaxResponseTokens:     cfg.Chat.MaxResponseTokens,
		MaxConversationTokens: cfg.Chat.MaxConversationTokens,
	})
	if err != nil {
		logger.Fatal("Failed to create completion provider", zap.Error(err))
	}

	llmClient := llm.NewClientWithProvider(provider, cfg.LLM.Model, cfg.Chat.MaxConversationTokens, logger)
	logger.Info("Completion provider initialized",
		zap.String("provider", llmClient.GetProviderName()),
		zap.Strings("supported_models", llmClient.GetSupportedModels()),
	)

	// Chat service: session cache + conversation window + orchestration
	windowBuilder := window.NewBuilder(cfg.Chat.MaxConversationTokens, logger)
	sessionCache := chat.NewCache()
	chatService := chat.NewService(store, llmClient, sessionCache, windowBuilder, logger)
	logger.Info("Chat service initialized")

	// HTTP surface
	sessionsHandler := handlers.NewSessionsHandler(chatService, logger)
	chatHandler := handlers.NewChatHandler(chatService, logger)
	healthHandler := handlers.NewHealthHandler()

	router := routes.SetupRoutes(cfg, logger, sessionsHandler, chatHandler, healthHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (interfaces.ChatStore, func(), error) {
	if strings.ToLower(cfg.Database.Driver) == "memory" {
		logger.Info("Using in-memory storage")
		return memory.New(), func() {}, nil
	}

	storage, err := postgres.New(cfg.Database.URL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL storage: %w", err)
	}

	if cfg.Database.AutoMigrate {
		logger.Info("Running database migrations...")
		migrator := postgres.NewMigrator(storage.GetDB(), logger)

		if err := migrator.RunMigrationsFromStrings(context.Background(), postgres.EmbeddedMigrations); err != nil {
			storage.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		currentVersion, err := migrator.GetCurrentVersion(context.Background())
		if err != nil {
			logger.Warn("Failed to get current migration version", zap.Error(err))
		} else {
			logger.Info("Database migrations completed", zap.Int("current_version", currentVersion))
		}
	}

	cleanup := func() {
		if err := storage.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}

	return storage, cleanup, nil
}

func maskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return ""
	}

	parts := strings.Split(dbURL, "://")
	if len(parts) != 2 {
		return dbURL
	}

	afterProtocol := parts[1]
	atIndex := strings.Index(afterProtocol, "@")
	if atIndex == -1 {
		return dbURL
	}

	colonIndex := strings.Index(afterProtocol, ":")
	if colonIndex == -1 || colonIndex > atIndex {
		return dbURL
	}

	username := afterProtocol[:colonIndex]
	afterAt := afterProtocol[atIndex:]

	return fmt.Sprintf("%s://%s:***%s", parts[0], username, afterAt)
}

func setupLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zapCfg.Build()
}
