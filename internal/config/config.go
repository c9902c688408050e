// Package config loads and validates service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultServerPort         = 8060
	defaultServerTimeout      = 30 * time.Second
	defaultDatabasePort       = 5432
	defaultMaxOpenConns       = 25
	defaultMaxIdleConns       = 5
	defaultConnMaxLifetime    = 5 * time.Minute
	defaultRedisAddress       = "localhost:6379"
	defaultClientTimeout      = 30 * time.Second
	defaultPollInterval       = 2 * time.Second
	defaultBatchConcurrency   = 3
	defaultMaxConcurrency     = 20
	defaultStaleAfter         = 30 * time.Minute
	defaultDirectoryBaseURL   = "http://localhost:8000/api/v1"
	defaultWorkflowBaseURL    = "http://localhost:8100/api/v1"
	defaultSyncEngineBaseURL  = "http://localhost:8200/api/v1"
)

// Config is the root configuration for the admin backend.
type Config struct {
	Debug     bool           `mapstructure:"debug"`
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Directory ClientConfig   `mapstructure:"directory"`
	Workflow  TriggerConfig  `mapstructure:"workflow"`
	Sync      TriggerConfig  `mapstructure:"sync"`
	Batch     BatchConfig    `mapstructure:"batch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings for batch history.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis settings for batch lifecycle events.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// ClientConfig holds settings for an outbound HTTP collaborator.
type ClientConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	JWTSecret string        `mapstructure:"jwt_secret"`
}

// TriggerConfig holds settings for a trigger collaborator (workflow or
// sync engine).
type TriggerConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// BatchConfig holds orchestrator tuning knobs.
type BatchConfig struct {
	DefaultConcurrency int           `mapstructure:"default_concurrency"`
	MaxConcurrency     int           `mapstructure:"max_concurrency"`
	StaleAfter         time.Duration `mapstructure:"stale_after"`
}

// Load reads configuration from the given YAML file (optional) with
// YDMS_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("YDMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine, defaults and env cover it.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required settings are present and sane.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Batch.DefaultConcurrency < 1 {
		return errors.New("batch.default_concurrency must be at least 1")
	}
	if c.Batch.MaxConcurrency < c.Batch.DefaultConcurrency {
		return errors.New("batch.max_concurrency must be >= batch.default_concurrency")
	}
	if c.Workflow.PollInterval <= 0 || c.Sync.PollInterval <= 0 {
		return errors.New("trigger poll_interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", defaultDatabasePort)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "ydms")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", defaultConnMaxLifetime)

	v.SetDefault("redis.address", defaultRedisAddress)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("directory.base_url", defaultDirectoryBaseURL)
	v.SetDefault("directory.timeout", defaultClientTimeout)

	v.SetDefault("workflow.base_url", defaultWorkflowBaseURL)
	v.SetDefault("workflow.timeout", defaultClientTimeout)
	v.SetDefault("workflow.poll_interval", defaultPollInterval)

	v.SetDefault("sync.base_url", defaultSyncEngineBaseURL)
	v.SetDefault("sync.timeout", defaultClientTimeout)
	v.SetDefault("sync.poll_interval", defaultPollInterval)

	v.SetDefault("batch.default_concurrency", defaultBatchConcurrency)
	v.SetDefault("batch.max_concurrency", defaultMaxConcurrency)
	v.SetDefault("batch.stale_after", defaultStaleAfter)
}
