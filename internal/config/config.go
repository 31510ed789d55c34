package config

import (
	"errors"
	"fmt"
	"time"

	"notifier/internal/database"
	"notifier/internal/kafka"
	"notifier/internal/push"
	"notifier/internal/storage"
)

// Config is the complete notifier configuration
type Config struct {
	Host string
	Port string

	Consul     ConsulConfig
	Database   database.Config
	Redis      RedisConfig
	Kafka      *kafka.Config
	Push       push.Config
	Storage    storage.Config
	Invocation InvocationConfig

	// AutoMigrate applies the document schema on startup (local setups only)
	AutoMigrate bool
}

// ConsulConfig holds service registry settings
type ConsulConfig struct {
	Enabled bool
	Addr    string
	Token   string
}

// RedisConfig holds the stats store settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// InvocationConfig bounds each handler invocation
type InvocationConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// requiredVars must be set for the service to start
var requiredVars = []string{"KAFKA_BROKERS", "DB_HOST", "DB_DATABASE", "DB_USERNAME"}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	if err := ValidateEnv(requiredVars); err != nil {
		return nil, err
	}

	kafkaCfg, err := kafka.LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host: GetEnvOrDefault("NOTIFIER_SERVICE_HOST", "notifier-service"),
		Port: GetEnvOrDefault("NOTIFIER_SERVICE_PORT", "8086"),
		Consul: ConsulConfig{
			Addr:  GetEnvOrDefault("CONSUL_HTTP_ADDR", "localhost:8500"),
			Token: GetEnvOrDefault("CONSUL_HTTP_TOKEN", ""),
		},
		Database: database.Config{
			Host:     GetEnvOrDefault("DB_HOST", ""),
			Port:     GetEnvOrDefault("DB_PORT", "5432"),
			User:     GetEnvOrDefault("DB_USERNAME", ""),
			Password: GetEnvOrDefault("DB_PASSWORD", ""),
			Database: GetEnvOrDefault("DB_DATABASE", ""),
			Schema:   GetEnvOrDefault("DB_SCHEMA", "public"),
		},
		Redis: RedisConfig{
			Addr:     GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
		},
		Kafka: kafkaCfg,
		Push: push.Config{
			Mode:            GetEnvOrDefault("PUSH_MODE", push.ModeLog),
			ProjectID:       GetEnvOrDefault("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: GetEnvOrDefault("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Storage: storage.Config{
			Endpoint:       GetEnvOrDefault("S3_ENDPOINT", ""),
			PublicEndpoint: GetEnvOrDefault("S3_PUBLIC_ENDPOINT", ""),
			AccessKey:      GetEnvOrDefault("S3_ACCESS_KEY", ""),
			SecretKey:      GetEnvOrDefault("S3_SECRET_KEY", ""),
			Bucket:         GetEnvOrDefault("S3_BUCKET_NAME", ""),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.Consul.Enabled, err = GetEnvBool("CONSUL_ENABLED", true)
	collect(err)
	cfg.AutoMigrate, err = GetEnvBool("DB_AUTO_MIGRATE", false)
	collect(err)
	cfg.Redis.DB, err = GetEnvInt("REDIS_DB", 0)
	collect(err)
	maxConns, err := GetEnvInt("DB_MAX_CONNS", 10)
	collect(err)
	cfg.Database.MaxConns = int32(maxConns)
	cfg.Storage.UseSSL, err = GetEnvBool("S3_USE_SSL", false)
	collect(err)
	cfg.Storage.LinkTTL, err = GetEnvDuration("MEDIA_LINK_TTL", 24*time.Hour)
	collect(err)
	cfg.Invocation.Timeout, err = GetEnvDuration("INVOCATION_TIMEOUT", 60*time.Second)
	collect(err)
	cfg.Invocation.MaxRetries, err = GetEnvInt("INVOCATION_MAX_RETRIES", 3)
	collect(err)
	cfg.Invocation.RetryBackoff, err = GetEnvDuration("INVOCATION_RETRY_BACKOFF", time.Second)
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Push.Mode {
	case push.ModeLog, push.ModeFCM:
	default:
		return fmt.Errorf("PUSH_MODE must be %q or %q, got %q", push.ModeLog, push.ModeFCM, c.Push.Mode)
	}
	if c.Invocation.Timeout <= 0 {
		return fmt.Errorf("INVOCATION_TIMEOUT must be positive")
	}
	if c.Invocation.MaxRetries < 1 {
		return fmt.Errorf("INVOCATION_MAX_RETRIES must be at least 1")
	}
	if c.Storage.Enabled() {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}
