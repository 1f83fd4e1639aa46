package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/possync/shiftdesk/internal/api"
	"github.com/possync/shiftdesk/internal/config"
	"github.com/possync/shiftdesk/internal/events"
	"github.com/possync/shiftdesk/internal/repository"
	"github.com/possync/shiftdesk/internal/service"
	"github.com/possync/shiftdesk/internal/shift"
	"github.com/possync/shiftdesk/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if present; real environment variables take precedence
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("no .env file loaded", zap.Error(envErr))
	}

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to set up database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("database ready", zap.String("driver", cfg.Database.Driver))

	// Create repository
	repo := repository.NewSQLRepository(db)

	loc, _ := cfg.Shift.Location()
	shifts := shift.NewManager(repo, repo, shift.Options{
		Tolerance: decimal.NewNullDecimal(cfg.Shift.ExactTolerance),
		Location:  loc,
	})

	// Event publishing is optional
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
			logger.Info("publishing events", zap.String("exchange", cfg.Events.Exchange))
		}
	}
	defer publisher.Close()

	// Create service
	svc := service.NewDefaultService(repo, shifts, publisher, logger, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("addr", server.Addr),
		zap.String("exact_tolerance", cfg.Shift.ExactTolerance.String()),
		zap.String("timezone", loc.String()),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
