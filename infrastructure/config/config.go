package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	ServerPort  string
	GatewayPort string

	// Control-plane and tenant store connection settings. Tenant store
	// names are derived per tenant; host credentials are shared.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBMaster   string
	DBSSLMode  string

	RedisURL string

	JWTSecret      string
	AccessTokenTTL time.Duration

	// Audit queue behavior.
	QueueAttempts       int
	QueueBackoff        time.Duration
	ConsumerMaxAttempts int

	// Circuit breaker defaults for the gateway.
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	// Gateway upstreams.
	AuthServiceURL   string
	TenantServiceURL string
	AuditServiceURL  string
	ProxyTimeout     time.Duration

	RateLimitEnabled  bool
	RateLimitAttempts int
	RateLimitWindow   time.Duration

	LogLevel  string
	LogFormat string
}

var (
	ErrMissingDBHost    = errors.New("DB_HOST is required")
	ErrMissingDBUser    = errors.New("DB_USER is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnvOrDefault("ENV", "development"),
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8081"),
		GatewayPort: getEnvOrDefault("GATEWAY_PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvOrDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBMaster:   getEnvOrDefault("DB_MASTER", "school_master"),
		DBSSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),

		RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		QueueAttempts:       getEnvOrDefaultInt("AUDIT_QUEUE_ATTEMPTS", 3),
		QueueBackoff:        getEnvOrDefaultDuration("AUDIT_QUEUE_BACKOFF", time.Second),
		ConsumerMaxAttempts: getEnvOrDefaultInt("AUDIT_CONSUMER_MAX_ATTEMPTS", 3),

		BreakerThreshold:    getEnvOrDefaultInt("BREAKER_THRESHOLD", 5),
		BreakerResetTimeout: getEnvOrDefaultDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),

		AuthServiceURL:   getEnvOrDefault("AUTH_SERVICE_URL", "http://localhost:8081"),
		TenantServiceURL: getEnvOrDefault("TENANT_SERVICE_URL", "http://localhost:8081"),
		AuditServiceURL:  getEnvOrDefault("AUDIT_SERVICE_URL", "http://localhost:8081"),
		ProxyTimeout:     getEnvOrDefaultDuration("PROXY_TIMEOUT", 30*time.Second),

		RateLimitEnabled:  getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitAttempts: getEnvOrDefaultInt("RATE_LIMIT_ATTEMPTS", 100),
		RateLimitWindow:   getEnvOrDefaultDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	accessTTL, err := strconv.Atoi(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "900"))
	if err != nil {
		return nil, errors.New("invalid JWT_ACCESS_TOKEN_TTL")
	}
	cfg.AccessTokenTTL = time.Duration(accessTTL) * time.Second

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}
	if cfg.DBUser == "" {
		return nil, ErrMissingDBUser
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// interpret as seconds if numeric, else parse like Go duration
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}
