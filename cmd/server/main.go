package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onebite/onebite-backend/config"
	"github.com/onebite/onebite-backend/internal/app/controller"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/internal/app/service"
	"github.com/onebite/onebite-backend/internal/db"
	"github.com/onebite/onebite-backend/internal/middleware"
	"github.com/onebite/onebite-backend/internal/router"
	"github.com/onebite/onebite-backend/internal/scheduler"
	"github.com/onebite/onebite-backend/pkg/logger"
	"github.com/onebite/onebite-backend/pkg/oauth"
	"github.com/onebite/onebite-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting ONEBITE Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis (토큰 블랙리스트용, 없으면 로그아웃 무효화 없이 동작)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	splitRepo := repository.NewSplitRepository(db.GetDB())
	participantRepo := repository.NewSplitParticipantRepository(db.GetDB())

	// Initialize OAuth clients
	kakaoClient := oauth.NewKakaoClient(cfg.OAuth.Kakao.ClientID, cfg.OAuth.Kakao.RedirectURI)
	naverClient := oauth.NewNaverClient(cfg.OAuth.Naver.ClientID, cfg.OAuth.Naver.ClientSecret)
	googleClient := oauth.NewGoogleClient(cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.Google.RedirectURI)
	appleClient := oauth.NewAppleClient(cfg.OAuth.Apple.ClientID)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		kakaoClient,
		naverClient,
		googleClient,
		appleClient,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	splitService := service.NewSplitService(splitRepo, participantRepo, userRepo, db.GetDB())

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	splitController := controller.NewSplitController(splitService, cfg.Split.DefaultRadiusKm)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(authController, splitController, authMiddleware, cfg)
	engine := r.Setup()

	// Start expiry scheduler
	expiryScheduler := scheduler.NewSplitExpiryScheduler(splitService, cfg.Split.ExpiryAfter)
	if err := expiryScheduler.Start(); err != nil {
		logger.Fatal("Failed to start split expiry scheduler", err)
	}
	defer expiryScheduler.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
