// Package bootstrap handles application initialization and lifecycle
// management for the admin backend.
package bootstrap

import (
	"fmt"

	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/metrics"
)

// Start initializes and starts the admin backend application.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Setup database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Error(closeErr))
		}
	}()

	// Phase 3: Recover batch history and hydrate the registry
	registry, err := SetupRegistry(db, log)
	if err != nil {
		return fmt.Errorf("failed to hydrate batch registry: %w", err)
	}

	// Phase 4: Setup event publisher (optional)
	publisher := SetupEventPublisher(cfg, log)

	// Phase 5: Setup collaborator clients and the executor
	m := metrics.New()
	executor, previewer := SetupExecutor(cfg, registry, m, publisher, log)

	// Phase 6: Setup and run HTTP server
	server := SetupHTTPServer(cfg, executor, previewer, registry, m, log)

	log.Info("Starting HTTP server",
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
