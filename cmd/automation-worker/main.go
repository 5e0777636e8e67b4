package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/backoffice-backend/internal/automation"
	"github.com/angelmondragon/backoffice-backend/internal/engine"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/db"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
	"github.com/angelmondragon/backoffice-backend/pkg/migrate"
	"github.com/angelmondragon/backoffice-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/backoffice-backend/pkg/pubsub"
	"github.com/angelmondragon/backoffice-backend/pkg/redis"
)

const serviceKind = "automation-worker"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.Automation.Mode != config.AutomationAsync {
		requireResource(ctx, logg, "automation mode", fmt.Errorf("%s must be async for the automation worker", config.EnvAutomationMode))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	requireResource(ctx, logg, "automation subscription", pubsubClient.EnsureSubscription(ctx, cfg.PubSub.AutomationSubscription))
	subscription := pubsubClient.AutomationSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "automation subscription", errors.New("subscription not configured"))
	}

	eng, err := engine.New(engine.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Registerer: prometheus.DefaultRegisterer,
	})
	requireResource(ctx, logg, "services", err)

	manager, err := idempotency.NewManager(redisClient, cfg.Automation.IdempotencyTTL, cfg.Automation.ClaimTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	consumer, err := automation.NewConsumer(eng.Dispatcher, subscription, manager, logg)
	requireResource(ctx, logg, "automation consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"subscription": cfg.PubSub.AutomationSubscription,
	})

	metricsServer := metrics.NewServer(":"+cfg.App.Port, prometheus.DefaultGatherer)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "metrics listener stopped", err)
		}
	}()
	defer metricsServer.Close()

	logg.Info(runCtx, "automation worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "automation worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "automation worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
