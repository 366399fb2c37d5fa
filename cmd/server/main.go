// backend/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hlardiez/chat-test/internal/api/handlers"
	"github.com/hlardiez/chat-test/internal/config"
	"github.com/hlardiez/chat-test/internal/database"
	"github.com/hlardiez/chat-test/internal/engine"
	"github.com/hlardiez/chat-test/internal/health"
	"github.com/hlardiez/chat-test/internal/middleware"
	"github.com/hlardiez/chat-test/internal/migration"
	"github.com/hlardiez/chat-test/internal/openai"
	"github.com/hlardiez/chat-test/internal/pinecone"
	"github.com/hlardiez/chat-test/internal/ragmetrics"
	"github.com/hlardiez/chat-test/internal/repository"
	"github.com/hlardiez/chat-test/internal/retrieval"
	"github.com/hlardiez/chat-test/pkg/utils"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	// Initialize logger
	utils.InitLogger()
	logger := utils.GetLogger()

	logger.Info("Starting chat backend...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.ValidateOpenAI(); err != nil {
		logger.WithError(err).Fatal("OpenAI configuration validation failed")
	}
	if err := cfg.ValidatePinecone(); err != nil {
		logger.WithError(err).Fatal("Pinecone configuration validation failed")
	}
	if err := cfg.ValidateRagMetrics(); err != nil {
		logger.WithError(err).Warn("Evaluation disabled: configuration incomplete")
	}

	// Initialize database manager
	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	migrationRunner := migration.NewRunner(dbManager, logger)
	if err := migrationRunner.RunMigrations(os.Getenv("MIGRATIONS_PATH")); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)
	cache := database.NewCache(dbManager.Redis, logger)

	// Initialize external service clients
	generator := openai.NewClient(cfg.OpenAI, logger)
	index := pinecone.NewClient(cfg.Pinecone.Host, cfg.Pinecone.APIKey, cfg.Pinecone.IndexName, logger)
	evaluator := ragmetrics.NewClient(cfg.RagMetrics, logger)

	// Probe the index and build the pipeline
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	retriever := retrieval.New(startupCtx, index, generator, cfg.Pinecone.TopK, cfg.Pinecone.Namespace, logger)
	startupCancel()

	eng := engine.New(retriever, generator, evaluator, cfg.Regeneration, logger)

	// Health checking
	checker := health.NewHealthChecker(dbManager, repoManager.SystemHealth, index, cfg.RagMetrics.BaseURL, logger)

	healthCtx, healthCancel := context.WithCancel(context.Background())
	defer healthCancel()
	go checker.PeriodicHealthCheck(healthCtx, 1*time.Minute)

	// Handlers
	chatHandler := handlers.NewChatHandler(eng, repoManager, cache, logger)
	healthHandler := handlers.NewHealthHandler(checker, logger)

	// Router
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(60)
	router.Use(rateLimiter.RateLimit())

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/health/live", healthHandler.HandleLiveness)

	api := router.Group("/api/v1")
	api.Use(middleware.PasscodeAuth(cfg.Server.Passcode))
	{
		api.POST("/chat", chatHandler.HandleChat)
		api.GET("/questions/popular", chatHandler.HandlePopularQuestions)
	}

	// HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}

	logger.Info("Server stopped")
}
