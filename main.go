package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-dashboard/internal/config"
	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/handlers"
	"github.com/SAP-F-2025/school-dashboard/internal/notifier"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories/backend"
	"github.com/SAP-F-2025/school-dashboard/internal/services"
	"github.com/SAP-F-2025/school-dashboard/internal/utils"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
	"github.com/SAP-F-2025/school-dashboard/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	ctx := context.Background()

	// Initialize database (postgres document store or local identity)
	var db *gorm.DB
	if cfg.NeedsDatabase() {
		db, err = pkg.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize Firebase (firestore document store or firebase blob store)
	var firebaseApp *firebase.App
	if cfg.NeedsFirebase() {
		firebaseApp, err = pkg.NewFirebaseApp(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	// Initialize repositories
	repoManager := backend.NewRepositoryManager(backend.RepositoryConfig{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		FirebaseApp: firebaseApp,
		Logger:      slogLogger,
	})
	if err := repoManager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize event transport
	pubSub, err := events.NewPubSub(cfg.KafkaBrokers, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event transport: %v", err)
	}
	publisher := events.NewWatermillPublisher(pubSub.Publisher, cfg.EventsTopic, slogLogger)

	// Notification emails go through Resend when configured, otherwise they are only logged
	var sender notifier.Sender
	if cfg.ResendAPIKey != "" {
		sender = notifier.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, slogLogger)
	} else {
		logger.Info("RESEND_API_KEY not set, notification emails are logged only")
		sender = notifier.NewNoopSender(slogLogger)
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(cfg, repoManager.GetRepository(), slogLogger, validator, publisher, sender)
	if err := serviceManager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Start the event consumer
	consumer, err := events.NewConsumer(pubSub.Subscriber, pubSub.Publisher, cfg.EventsTopic, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event consumer: %v", err)
	}
	if notification := serviceManager.Notification(); notification != nil {
		notification.Register(consumer)
	}
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("Event consumer stopped", "error", err)
		}
	}()

	// Initialize handlers
	handlerConfig := handlers.HandlerConfig{
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}
	if cfg.BlobStore == config.BlobStoreLocal {
		handlerConfig.LocalBlobDir = cfg.LocalBlobDir
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, handlerConfig)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment,
			"document_store", cfg.DocumentStore, "identity_provider", cfg.IdentityProvider, "blob_store", cfg.BlobStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop consuming before the transport closes
	if err := consumer.Close(); err != nil {
		log.Printf("Failed to close event consumer: %v", err)
	}

	// Shutdown services
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := pubSub.Close(); err != nil {
		log.Printf("Failed to close event transport: %v", err)
	}

	// Close database, Redis and Firestore connections
	if err := repoManager.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	logger.Info("Server exited")
}
