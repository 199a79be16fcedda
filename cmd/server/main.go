package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/application"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/config"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/domain/route"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/events"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/handler"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/logger"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/middleware"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/planner"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/repository"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/routegen"
)

const serviceName = "service-route"

func main() {
	// Load local overrides before reading the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database when session history is configured
	var db *gorm.DB
	var sessionRepo *repository.GormSessionRepository
	if cfg.DB.Enabled() {
		db, err = gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		log.Info("connected to database", zap.String("host", cfg.DB.Host))

		if cfg.AppEnv == "development" {
			if err := db.AutoMigrate(&repository.SessionModel{}); err != nil {
				log.Fatal("failed to run auto-migration", zap.Error(err))
			}
			log.Info("database migration completed (dev auto-migrate)")
		}

		sessionRepo = repository.NewGormSessionRepository(db)
	} else {
		log.Info("session history disabled, no database configured")
	}

	// Initialize Kafka producer when brokers are configured
	var producer *events.Producer
	if cfg.Kafka.Enabled() {
		producer = events.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = producer.Close() }()
		log.Info("kafka producer initialized",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		log.Info("event publishing disabled, no kafka brokers configured")
	}

	// Initialize the itinerary planner
	tripPlanner := planner.NewDemoPlanner(planner.Config{
		Latency:   cfg.Planner.Latency,
		FailEvery: cfg.Planner.FailEvery,
	}, log)

	// Sessions run on this context, not on request contexts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize application service
	var historyRepo route.SessionHistoryRepository
	if sessionRepo != nil {
		historyRepo = sessionRepo
	}
	sessionService := application.NewRouteSessionService(
		ctx,
		tripPlanner,
		historyRepo,
		producer,
		application.Config{
			Source:    serviceName,
			Topic:     cfg.Kafka.Topic,
			MaxActive: cfg.Session.MaxActive,
			Session: routegen.Config{
				MinVisible:       cfg.Session.MinVisible,
				RevealEvery:      cfg.Session.RevealInterval,
				SubtitleEvery:    cfg.Session.SubtitleInterval,
				FinalizeAfter:    cfg.Session.FinalizeAfter,
				FastForwardEvery: cfg.Session.FastForwardInterval,
			},
		},
		log,
	)

	// Initialize HTTP handlers
	sessionHandler := handler.NewRouteSessionHandler(sessionService)
	adminHandler := handler.NewAdminSessionHandler(sessionService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := handler.NewHealthHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	sessionHandler.RegisterRoutes(&router.RouterGroup)
	adminHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop in-flight sessions
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
