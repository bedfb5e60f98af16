package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/schoolyard/schoolyard/infrastructure/config"
	"github.com/schoolyard/schoolyard/infrastructure/persistence/postgres"
	"github.com/schoolyard/schoolyard/infrastructure/queue"
	"github.com/schoolyard/schoolyard/infrastructure/service/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFormat, "schoolyard-auditworker")

	settings := postgres.ConnSettings{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		SSLMode:  cfg.DBSSLMode,
	}

	master, err := postgres.OpenMaster(settings, cfg.DBMaster)
	if err != nil {
		logg.WithError(err).Fatal("failed to open control-plane store")
	}
	defer master.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := master.PingContext(pingCtx); err != nil {
		logg.WithError(err).Fatal("failed to ping control-plane store")
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logg.WithError(err).Fatal("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	tenantRepo := postgres.NewTenantRepository(master)
	connRouter := postgres.NewRouter(settings, tenantRepo, logg)
	defer connRouter.Close()
	auditStore := postgres.NewAuditStore(master, connRouter, logg)

	consumer := queue.NewConsumer(redisClient, auditStore, logg, cfg.ConsumerMaxAttempts, cfg.QueueBackoff)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.WithError(err).Fatal("audit worker stopped")
	}
	logg.Info("audit worker shut down")
}
