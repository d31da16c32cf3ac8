package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vqanh/storegate/internal/config"
	adminHandler "github.com/vqanh/storegate/internal/handler/admin"
	healthHandler "github.com/vqanh/storegate/internal/handler/health"
	pushHandler "github.com/vqanh/storegate/internal/handler/push"
	statusHandler "github.com/vqanh/storegate/internal/handler/status"
	"github.com/vqanh/storegate/internal/middleware"
	"github.com/vqanh/storegate/internal/repository/postgres"
	"github.com/vqanh/storegate/internal/router"
	"github.com/vqanh/storegate/internal/service/gate"
	pushService "github.com/vqanh/storegate/internal/service/push"
	statusService "github.com/vqanh/storegate/internal/service/status"
	subscriptionService "github.com/vqanh/storegate/internal/service/subscription"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/messaging/redis"
	"github.com/vqanh/storegate/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("storegate", "api")

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis message broker
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db)
	hoursRepo := postgres.NewHoursRepository(baseRepo)
	announcementRepo := postgres.NewAnnouncementRepository(baseRepo)
	subscriptionRepo := postgres.NewSubscriptionRepository(baseRepo)
	logRepo := postgres.NewNotificationLogRepository(baseRepo)
	settingsRepo := postgres.NewSettingsRepository(baseRepo)

	// Initialize services
	statusSvc := statusService.NewService(hoursRepo, announcementRepo, broker, statusService.Config{
		CacheTTL:        cfg.Status.CacheTTL,
		RefreshInterval: cfg.Status.RefreshInterval,
	}, appLogger, appMetrics)

	subscriptionSvc := subscriptionService.NewService(subscriptionRepo)

	transport := pushService.NewWebPushTransport(pushService.WebPushConfig{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
		TTL:             cfg.Push.TTL,
	})
	dispatcher := pushService.NewDispatcher(subscriptionRepo, logRepo, settingsRepo, transport, pushService.DispatcherConfig{
		BatchSize:   cfg.Push.BatchSize,
		BatchDelay:  cfg.Push.BatchDelay,
		SendTimeout: cfg.Push.SendTimeout,
	}, appLogger, appMetrics)

	overlayGate := gate.New()

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	healthH := healthHandler.NewHandler(db)
	statusH := statusHandler.NewHandler(statusSvc, overlayGate)
	pushH := pushHandler.NewHandler(subscriptionSvc, logRepo, cfg.Push.VAPIDPublicKey)
	adminH := adminHandler.NewHandler(hoursRepo, announcementRepo, settingsRepo, logRepo, subscriptionSvc, dispatcher, statusSvc)

	// Setup router
	r := router.NewRouter(
		authMiddleware,
		healthH,
		statusH,
		pushH,
		adminH,
		router.Config{
			RateLimit:  100,
			RateBurst:  200,
			CORSConfig: middleware.DefaultCORSConfig(),
			Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the status cache and keep it fresh on a fixed cadence.
	statusSvc.Refresh(ctx)
	go statusSvc.StartRefresher(ctx)

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
