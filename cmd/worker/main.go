package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/vqanh/storegate/internal/config"
	"github.com/vqanh/storegate/internal/repository/postgres"
	pushService "github.com/vqanh/storegate/internal/service/push"
	"github.com/vqanh/storegate/internal/worker"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/messaging/redis"
	"github.com/vqanh/storegate/pkg/metrics"
)

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("storegate", "worker")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(baseRepo)
	logRepo := postgres.NewNotificationLogRepository(baseRepo)
	settingsRepo := postgres.NewSettingsRepository(baseRepo)

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

	consumer := worker.NewEventConsumer(broker, dispatcher, appLogger)
	retention := worker.NewRetentionWorker(logRepo, cfg.Retention.LogRetentionDays, cfg.Retention.CleanupInterval, appLogger, appMetrics)

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	go retention.Start(ctx)

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("event consumer failed")
	}
}
