package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Push      PushConfig      `mapstructure:"push"`
	Status    StatusConfig    `mapstructure:"status"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// PushConfig carries the VAPID credentials configured once at process start
// and the dispatcher's fan-out knobs.
type PushConfig struct {
	VAPIDPublicKey  string        `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string        `mapstructure:"vapid_private_key"`
	Subscriber      string        `mapstructure:"subscriber"`
	TTL             int           `mapstructure:"ttl"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchDelay      time.Duration `mapstructure:"batch_delay"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
}

// StatusConfig controls the cached status view.
type StatusConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
}

type RetentionConfig struct {
	LogRetentionDays int           `mapstructure:"log_retention_days"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Push.BatchSize <= 0 {
		cfg.Push.BatchSize = 100
	}
	if cfg.Push.BatchDelay <= 0 {
		cfg.Push.BatchDelay = 100 * time.Millisecond
	}
	if cfg.Push.SendTimeout <= 0 {
		cfg.Push.SendTimeout = 10 * time.Second
	}
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 86400
	}
	if cfg.Status.RefreshInterval <= 0 {
		cfg.Status.RefreshInterval = 5 * time.Minute
	}
	if cfg.Status.CacheTTL <= 0 {
		cfg.Status.CacheTTL = 10 * time.Minute
	}
	if cfg.Retention.LogRetentionDays <= 0 {
		cfg.Retention.LogRetentionDays = 30
	}
	if cfg.Retention.CleanupInterval <= 0 {
		cfg.Retention.CleanupInterval = 24 * time.Hour
	}
}
