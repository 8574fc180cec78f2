package config

import (
	"errors"
	"fmt"
	"time"

	"go-leave/internal/shared/connection"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the api, worker and consumer binaries.
type Config struct {
	Environment string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	DatabaseHost     string `mapstructure:"DB_HOST"`
	DatabasePort     string `mapstructure:"DB_PORT"`
	DatabaseUser     string `mapstructure:"DB_USER"`
	DatabasePassword string `mapstructure:"DB_PASSWORD"`
	DatabaseName     string `mapstructure:"DB_NAME"`
	DatabaseSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	KafkaBroker string `mapstructure:"KAFKA_BROKER"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	AIAPIURL  string        `mapstructure:"AI_API_URL"`
	AIAPIKey  string        `mapstructure:"AI_API_KEY"`
	AIModel   string        `mapstructure:"AI_MODEL"`
	AITimeout time.Duration `mapstructure:"AI_TIMEOUT"`

	ComplianceAPIURL   string `mapstructure:"COMPLIANCE_API_URL"`
	ComplianceAPIToken string `mapstructure:"COMPLIANCE_API_TOKEN"`
	CompliancePageSize int    `mapstructure:"COMPLIANCE_PAGE_SIZE"`
	ComplianceSyncCron string `mapstructure:"COMPLIANCE_SYNC_CRON"`

	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	WorkerMetricsPort  string        `mapstructure:"WORKER_METRICS_PORT"`
}

// Load reads .env, an optional config.yaml and the process environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "go_leave")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKER", "")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)

	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	v.SetDefault("AI_API_URL", "https://api.openai.com/v1")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", 20*time.Second)

	v.SetDefault("COMPLIANCE_API_URL", "")
	v.SetDefault("COMPLIANCE_API_TOKEN", "")
	v.SetDefault("COMPLIANCE_PAGE_SIZE", 20)
	v.SetDefault("COMPLIANCE_SYNC_CRON", "0 30 1 * * *")

	v.SetDefault("OUTBOX_POLL_INTERVAL", 3*time.Second)
	v.SetDefault("WORKER_METRICS_PORT", "9102")
}

func validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if cfg.CompliancePageSize <= 0 {
		return fmt.Errorf("COMPLIANCE_PAGE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) DB() connection.DBConfig {
	return connection.DBConfig{
		Host:     c.DatabaseHost,
		User:     c.DatabaseUser,
		Password: c.DatabasePassword,
		Name:     c.DatabaseName,
		Port:     c.DatabasePort,
		SSLMode:  c.DatabaseSSLMode,
	}
}
