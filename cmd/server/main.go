package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/schoolyard/schoolyard/application/usecase"
	"github.com/schoolyard/schoolyard/infrastructure/config"
	"github.com/schoolyard/schoolyard/infrastructure/http/handler"
	"github.com/schoolyard/schoolyard/infrastructure/http/middleware"
	"github.com/schoolyard/schoolyard/infrastructure/persistence/postgres"
	"github.com/schoolyard/schoolyard/infrastructure/queue"
	"github.com/schoolyard/schoolyard/infrastructure/service/jwt"
	"github.com/schoolyard/schoolyard/infrastructure/service/logger"
	"github.com/schoolyard/schoolyard/infrastructure/service/password"
	"github.com/schoolyard/schoolyard/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel, cfg.LogFormat, "schoolyard-server")
	logg.WithField("env", cfg.Environment).Info("application starting")

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

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := master.PingContext(pingCtx); err != nil {
		logg.WithError(err).Fatal("failed to ping control-plane store")
	}
	logg.Info("control-plane store connection established")

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logg.WithError(err).Fatal("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	// Services.
	passwordService := password.NewBcryptPasswordService(10)
	tokenService, err := jwt.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logg.WithError(err).Fatal("failed to initialize JWT service")
	}

	// Control-plane bootstrap.
	provisioner := postgres.NewProvisioner(master, settings, passwordService, cfg.Environment, logg)
	if err := provisioner.InitControlPlane(ctx, master); err != nil {
		logg.WithError(err).Fatal("failed to bootstrap control plane")
	}

	// Repositories and the tenant connection router.
	tenantRepo := postgres.NewTenantRepository(master)
	connRouter := postgres.NewRouter(settings, tenantRepo, logg)
	defer connRouter.Close()
	userRepo := postgres.NewUserRepository(connRouter)
	profileRepo := postgres.NewStudentProfileRepository(connRouter)
	superAdminRepo := postgres.NewSuperAdminRepository(master)
	auditStore := postgres.NewAuditStore(master, connRouter, logg)

	// Audit pipeline producer side.
	producer := queue.NewProducer(redisClient, logg, cfg.QueueAttempts, cfg.QueueBackoff)

	// Use cases.
	authUseCase := usecase.NewAuthUseCase(
		userRepo,
		superAdminRepo,
		tokenService,
		passwordService,
		producer,
		int(cfg.AccessTokenTTL.Seconds()),
		logg,
	)
	tenantUseCase := usecase.NewTenantUseCase(tenantRepo, provisioner, connRouter, producer, logg)
	auditUseCase := usecase.NewAuditUseCase(auditStore, producer, tenantRepo, logg)
	userUseCase := usecase.NewUserUseCase(userRepo, profileRepo, passwordService, producer, logg)

	// HTTP surface.
	authHandler := handler.NewAuthHandler(authUseCase)
	tenantHandler := handler.NewTenantHandler(tenantUseCase)
	auditHandler := handler.NewAuditHandler(auditUseCase)
	userHandler := handler.NewUserHandler(userUseCase)

	authMW := middleware.NewAuthMiddleware(tokenService)
	limiter := ratelimit.New(redisClient, logg, cfg.RateLimitEnabled)
	rateLimitMW := middleware.NewRateLimitMiddleware(limiter, producer, logg, cfg.RateLimitAttempts, cfg.RateLimitWindow)

	tenantFromPath := func(r *http.Request) string {
		return mux.Vars(r)["tenantId"]
	}
	tenantAccess := authMW.RequireTenantAccess(tenantFromPath)

	router := mux.NewRouter()
	router.Use(middleware.CorrelationID)
	router.Use(rateLimitMW.RateLimit)

	router.HandleFunc("/health", handler.Health("schoolyard-server")).Methods(http.MethodGet)

	router.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)

	router.HandleFunc("/tenants", authMW.RequireSuperAdmin(tenantHandler.Create)).Methods(http.MethodPost)
	router.HandleFunc("/tenants", authMW.RequireSuperAdmin(tenantHandler.List)).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{tenantId}", authMW.RequireSuperAdmin(tenantHandler.Get)).Methods(http.MethodGet)
	router.HandleFunc("/tenants/{tenantId}", authMW.RequireSuperAdmin(tenantHandler.Update)).Methods(http.MethodPut)
	router.HandleFunc("/tenants/{tenantId}", authMW.RequireSuperAdmin(tenantHandler.Delete)).Methods(http.MethodDelete)

	router.HandleFunc("/users", authMW.RequireAdmin(userHandler.List)).Methods(http.MethodGet)
	router.HandleFunc("/users/{userId}", authMW.RequireAuth(userHandler.Get)).Methods(http.MethodGet)
	router.HandleFunc("/users/{userId}", authMW.RequireAuth(userHandler.Update)).Methods(http.MethodPut)
	router.HandleFunc("/users/{userId}", authMW.RequireAdmin(userHandler.Delete)).Methods(http.MethodDelete)
	router.HandleFunc("/users/{userId}/profile", authMW.RequireAuth(userHandler.StudentProfile)).Methods(http.MethodGet)
	router.HandleFunc("/users/{userId}/profile", authMW.RequireAuth(userHandler.UpdateStudentProfile)).Methods(http.MethodPut)

	router.HandleFunc("/admin/tenant-admin", authMW.RequireSuperAdmin(userHandler.CreateTenantAdmin)).Methods(http.MethodPost)

	router.HandleFunc("/audit/failed-logins", authMW.RequireSuperAdmin(auditHandler.AllFailedLogins)).Methods(http.MethodGet)
	router.HandleFunc("/audit/logs", authMW.RequireAuth(auditHandler.Publish)).Methods(http.MethodPost)
	router.HandleFunc("/audit/{tenantId}/failed-logins", tenantAccess(auditHandler.FailedLogins)).Methods(http.MethodGet)
	router.HandleFunc("/audit/{tenantId}/logs", tenantAccess(auditHandler.TenantLogs)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.WithField("port", cfg.ServerPort).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.WithError(err).Error("graceful shutdown failed")
	}
}
