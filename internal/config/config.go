// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Storage   StorageConfig
	Estimator EstimatorConfig
	Auth      AuthConfig
	Worker    WorkerConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// QueueConfig holds task queue configuration.
type QueueConfig struct {
	Concurrency int
	// MaxRetry applies to scan tasks. A redelivered task that finds its
	// job already completed stops cleanly, so retries are safe.
	MaxRetry    int
	TaskTimeout time.Duration
}

// StorageConfig holds image storage configuration (S3 or an
// S3-compatible service such as MinIO).
type StorageConfig struct {
	Bucket     string
	Region     string
	Endpoint   string
	AuthType   string // keys, sts_role
	AccessKey  string
	SecretKey  string
	RoleARN    string
	ExternalID string
}

// EstimatorConfig holds configuration for the external volume estimator.
type EstimatorConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// AuthConfig holds token verification settings. Token issuance and the
// whole account lifecycle live in the upstream identity service; this
// API only verifies bearer tokens it is handed.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// WorkerConfig holds worker pipeline and reconciliation settings.
type WorkerConfig struct {
	FetchTimeout time.Duration
	ScratchDir   string

	// Reconciliation sweep: pending jobs older than PendingCutoff are
	// re-enqueued; processing jobs older than ProcessingCutoff are
	// marked failed. RecomputeCron re-derives every zone status
	// nightly to repair any drift.
	ReconcileCron    string
	PendingCutoff    time.Duration
	ProcessingCutoff time.Duration
	RecomputeCron    string
	SweepBatchSize   int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	Enabled         bool
	RequestsPerSec  float64
	Burst           int
	CleanupInterval time.Duration
}

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	Enabled  bool
	Endpoint string
	Insecure bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "binsight"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "binsight"),
			Password:        getEnv("DB_PASSWORD", "secret"),
			Name:            getEnv("DB_NAME", "binsight"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Queue: QueueConfig{
			Concurrency: getEnvInt("QUEUE_CONCURRENCY", 10),
			MaxRetry:    getEnvInt("QUEUE_MAX_RETRY", 3),
			TaskTimeout: getEnvDuration("QUEUE_TASK_TIMEOUT", 5*time.Minute),
		},
		Storage: StorageConfig{
			Bucket:     getEnv("STORAGE_BUCKET", "binsight-scans"),
			Region:     getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:   getEnv("STORAGE_ENDPOINT", ""),
			AuthType:   getEnv("STORAGE_AUTH_TYPE", "keys"),
			AccessKey:  getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:  getEnv("STORAGE_SECRET_KEY", ""),
			RoleARN:    getEnv("STORAGE_ROLE_ARN", ""),
			ExternalID: getEnv("STORAGE_EXTERNAL_ID", ""),
		},
		Estimator: EstimatorConfig{
			URL:     getEnv("ESTIMATOR_URL", "http://localhost:9000"),
			APIKey:  getEnv("ESTIMATOR_API_KEY", ""),
			Timeout: getEnvDuration("ESTIMATOR_TIMEOUT", 2*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", "binsight"),
		},
		Worker: WorkerConfig{
			FetchTimeout:     getEnvDuration("WORKER_FETCH_TIMEOUT", 30*time.Second),
			ScratchDir:       getEnv("WORKER_SCRATCH_DIR", os.TempDir()),
			ReconcileCron:    getEnv("WORKER_RECONCILE_CRON", "*/5 * * * *"),
			PendingCutoff:    getEnvDuration("WORKER_PENDING_CUTOFF", 10*time.Minute),
			ProcessingCutoff: getEnvDuration("WORKER_PROCESSING_CUTOFF", 1*time.Hour),
			RecomputeCron:    getEnv("WORKER_RECOMPUTE_CRON", "0 3 * * *"),
			SweepBatchSize:   getEnvInt("WORKER_SWEEP_BATCH_SIZE", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec:  getEnvFloat("RATE_LIMIT_RPS", 100),
			Burst:           getEnvInt("RATE_LIMIT_BURST", 200),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP", 1*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvBool("TRACING_ENABLED", false),
			Endpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4318"),
			Insecure: getEnvBool("TRACING_OTLP_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("queue concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Worker.FetchTimeout <= 0 {
		return fmt.Errorf("worker fetch timeout must be positive")
	}
	switch c.Storage.AuthType {
	case "keys", "sts_role", "":
	default:
		return fmt.Errorf("invalid storage auth type: %q", c.Storage.AuthType)
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}
	return nil
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the HTTP server address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if the application is in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if the application is in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
