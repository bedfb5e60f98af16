package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schoolyard/schoolyard/infrastructure/config"
	"github.com/schoolyard/schoolyard/infrastructure/gateway"
	"github.com/schoolyard/schoolyard/infrastructure/gateway/breaker"
	"github.com/schoolyard/schoolyard/infrastructure/http/middleware"
	"github.com/schoolyard/schoolyard/infrastructure/service/jwt"
	"github.com/schoolyard/schoolyard/infrastructure/service/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFormat, "schoolyard-gateway")

	tokenService, err := jwt.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logg.WithError(err).Fatal("failed to initialize JWT service")
	}

	breakers := breaker.NewRegistry(cfg.BreakerThreshold, cfg.BreakerResetTimeout)
	gw := gateway.New(breakers, tokenService, logg, cfg.Environment, cfg.ProxyTimeout)

	handler, err := gw.Handler([]gateway.Upstream{
		{Name: "auth", Prefix: "auth", Target: cfg.AuthServiceURL},
		{Name: "tenant", Prefix: "tenants", Target: cfg.TenantServiceURL},
		{Name: "tenant", Prefix: "users", Target: cfg.TenantServiceURL},
		{Name: "tenant", Prefix: "admin", Target: cfg.TenantServiceURL},
		{Name: "audit", Prefix: "audit", Target: cfg.AuditServiceURL},
	})
	if err != nil {
		logg.WithError(err).Fatal("failed to build gateway")
	}

	server := &http.Server{
		Addr:         ":" + cfg.GatewayPort,
		Handler:      middleware.CorrelationID(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ProxyTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.WithField("port", cfg.GatewayPort).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.WithError(err).Fatal("gateway failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.WithError(err).Error("graceful shutdown failed")
	}
}
