package bootstrap

import (
	"github.com/prehisle/ydms-sub001/internal/batch"
	"github.com/prehisle/ydms-sub001/internal/config"
	"github.com/prehisle/ydms-sub001/internal/directory"
	"github.com/prehisle/ydms-sub001/internal/events"
	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/metrics"
	"github.com/prehisle/ydms-sub001/internal/trigger"
)

// SetupExecutor wires the collaborator clients into the batch executor and
// previewer.
func SetupExecutor(
	cfg *config.Config,
	registry *batch.Registry,
	m *metrics.Metrics,
	publisher *events.Publisher,
	log logger.Logger,
) (*batch.Executor, *batch.Previewer) {
	dir := directory.NewClient(
		directory.WithBaseURL(cfg.Directory.BaseURL),
		directory.WithTimeout(cfg.Directory.Timeout),
		directory.WithJWTSecret(cfg.Directory.JWTSecret),
	)

	workflow := trigger.NewWorkflowClient(cfg.Workflow.BaseURL,
		trigger.WithWorkflowTimeout(cfg.Workflow.Timeout),
		trigger.WithWorkflowJWTSecret(cfg.Workflow.JWTSecret),
	)
	syncer := trigger.NewSyncClient(cfg.Sync.BaseURL,
		trigger.WithSyncTimeout(cfg.Sync.Timeout),
		trigger.WithSyncJWTSecret(cfg.Sync.JWTSecret),
	)

	enumerator := batch.NewEnumerator(dir)
	executor := batch.NewExecutor(enumerator, registry, workflow, syncer,
		batch.ExecutorConfig{
			DefaultConcurrency:   cfg.Batch.DefaultConcurrency,
			MaxConcurrency:       cfg.Batch.MaxConcurrency,
			WorkflowPollInterval: cfg.Workflow.PollInterval,
			SyncPollInterval:     cfg.Sync.PollInterval,
		},
		m, publisher, log,
	)

	return executor, batch.NewPreviewer(enumerator)
}
