package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mfiops/collection-ledger/internal/domain"
)

// Config holds all configuration for the engine
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	External   ExternalConfig   `mapstructure:"external"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	TTL      string `mapstructure:"REDIS_LEDGER_TTL"`
}

type SchedulerConfig struct {
	StatusCron string `mapstructure:"SCHEDULER_STATUS_CRON"`
	Timezone   string `mapstructure:"SCHEDULER_TIMEZONE"`
}

// ThresholdsConfig is the operator-overridable grace-period configuration.
// Changes take effect on the next status evaluation; nothing is rewritten
// retroactively.
type ThresholdsConfig struct {
	DormantDays                 int `mapstructure:"DORMANT_DAYS"`
	LitigationDaysAfterMaturity int `mapstructure:"LITIGATION_DAYS_AFTER_MATURITY"`
	PastDueDaysAfterMaturity    int `mapstructure:"PAST_DUE_DAYS_AFTER_MATURITY"`
	ArrearsDailyDays            int `mapstructure:"ARREARS_DAILY_DAYS"`
	ArrearsWeeklyDays           int `mapstructure:"ARREARS_WEEKLY_DAYS"`
	ArrearsSemiMonthlyDays      int `mapstructure:"ARREARS_SEMI_MONTHLY_DAYS"`
	ArrearsMonthlyDays          int `mapstructure:"ARREARS_MONTHLY_DAYS"`
}

// ExternalConfig bounds calls to persistence and cache.
type ExternalConfig struct {
	CallTimeout   string `mapstructure:"EXTERNAL_CALL_TIMEOUT"`
	RetryAttempts int    `mapstructure:"EXTERNAL_RETRY_ATTEMPTS"`
	RetryBackoff  string `mapstructure:"EXTERNAL_RETRY_BACKOFF"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_LEDGER_TTL", "10m")
	viper.SetDefault("SCHEDULER_STATUS_CRON", "0 0 1 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Asia/Manila")
	viper.SetDefault("DORMANT_DAYS", 360)
	viper.SetDefault("LITIGATION_DAYS_AFTER_MATURITY", 180)
	viper.SetDefault("PAST_DUE_DAYS_AFTER_MATURITY", 90)
	viper.SetDefault("ARREARS_DAILY_DAYS", 3)
	viper.SetDefault("ARREARS_WEEKLY_DAYS", 7)
	viper.SetDefault("ARREARS_SEMI_MONTHLY_DAYS", 15)
	viper.SetDefault("ARREARS_MONTHLY_DAYS", 30)
	viper.SetDefault("EXTERNAL_CALL_TIMEOUT", "5s")
	viper.SetDefault("EXTERNAL_RETRY_ATTEMPTS", 3)
	viper.SetDefault("EXTERNAL_RETRY_BACKOFF", "200ms")

	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	for name, v := range map[string]int{
		"DORMANT_DAYS":                   c.Thresholds.DormantDays,
		"LITIGATION_DAYS_AFTER_MATURITY": c.Thresholds.LitigationDaysAfterMaturity,
		"PAST_DUE_DAYS_AFTER_MATURITY":   c.Thresholds.PastDueDaysAfterMaturity,
		"ARREARS_DAILY_DAYS":             c.Thresholds.ArrearsDailyDays,
		"ARREARS_WEEKLY_DAYS":            c.Thresholds.ArrearsWeeklyDays,
		"ARREARS_SEMI_MONTHLY_DAYS":      c.Thresholds.ArrearsSemiMonthlyDays,
		"ARREARS_MONTHLY_DAYS":           c.Thresholds.ArrearsMonthlyDays,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
	}

	if c.External.RetryAttempts < 0 {
		return fmt.Errorf("EXTERNAL_RETRY_ATTEMPTS must not be negative")
	}

	if _, err := time.ParseDuration(c.External.CallTimeout); err != nil {
		return fmt.Errorf("EXTERNAL_CALL_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.External.RetryBackoff); err != nil {
		return fmt.Errorf("EXTERNAL_RETRY_BACKOFF must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Redis.TTL); err != nil {
		return fmt.Errorf("REDIS_LEDGER_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("DATABASE_CONN_MAX_LIFETIME must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// StatusThresholds converts the configured values into the domain object
// passed explicitly into every status evaluation.
func (c *Config) StatusThresholds() domain.StatusThresholds {
	return domain.StatusThresholds{
		DormantDays:                 c.Thresholds.DormantDays,
		LitigationDaysAfterMaturity: c.Thresholds.LitigationDaysAfterMaturity,
		PastDueDaysAfterMaturity:    c.Thresholds.PastDueDaysAfterMaturity,
		ArrearsDailyDays:            c.Thresholds.ArrearsDailyDays,
		ArrearsWeeklyDays:           c.Thresholds.ArrearsWeeklyDays,
		ArrearsSemiMonthlyDays:      c.Thresholds.ArrearsSemiMonthlyDays,
		ArrearsMonthlyDays:          c.Thresholds.ArrearsMonthlyDays,
	}
}

// GetCallTimeout returns the bound applied to external calls.
func (c *Config) GetCallTimeout() time.Duration {
	d, _ := time.ParseDuration(c.External.CallTimeout)
	return d
}

// GetRetryBackoff returns the pause between transient-failure retries.
func (c *Config) GetRetryBackoff() time.Duration {
	d, _ := time.ParseDuration(c.External.RetryBackoff)
	return d
}

// GetLedgerTTL returns the cache lifetime of reconciled ledger snapshots.
func (c *Config) GetLedgerTTL() time.Duration {
	d, _ := time.ParseDuration(c.Redis.TTL)
	return d
}

// GetConnMaxLifetime returns the database connection lifetime.
func (c *Config) GetConnMaxLifetime() time.Duration {
	d, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return d
}
