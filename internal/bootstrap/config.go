package bootstrap

import (
	"flag"
	"fmt"

	"github.com/prehisle/ydms-sub001/internal/config"
	"github.com/prehisle/ydms-sub001/internal/logger"
)

const serviceName = "ydms-admin"

// LoadConfig loads configuration from the -config flag path with
// environment overrides.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	level := "info"
	if cfg.Debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", serviceName),
	), nil
}
