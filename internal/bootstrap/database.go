package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prehisle/ydms-sub001/internal/batch"
	"github.com/prehisle/ydms-sub001/internal/config"
	"github.com/prehisle/ydms-sub001/internal/database"
	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/repository"
)

const (
	hydrateTimeout     = 30 * time.Second
	interruptedMessage = "interrupted by service restart"
)

// SetupDatabase creates a database connection.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return db, nil
}

// SetupRegistry fails non-terminal batches left behind by a previous run,
// then hydrates the in-memory registry from batch history.
func SetupRegistry(db *database.DB, log logger.Logger) (*batch.Registry, error) {
	repo := repository.NewBatchRepository(db.DB(), log)

	ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
	defer cancel()

	interrupted, err := repo.MarkInterrupted(ctx, interruptedMessage)
	if err != nil {
		return nil, fmt.Errorf("mark interrupted batches: %w", err)
	}
	if interrupted > 0 {
		log.Warn("Failed batches interrupted by previous shutdown",
			logger.Int64("count", interrupted),
		)
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load batch history: %w", err)
	}

	registry := batch.NewRegistry(repo, log)
	registry.Hydrate(records)

	log.Info("Batch registry hydrated",
		logger.Int("batches", len(records)),
	)
	return registry, nil
}
