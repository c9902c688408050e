package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/events"
	"github.com/prehisle/ydms-sub001/internal/logger"
	"github.com/prehisle/ydms-sub001/internal/metrics"
	"github.com/prehisle/ydms-sub001/internal/trigger"
)

// ReasonBatchCancelled marks targets never dispatched (or cooperatively
// cancelled in flight) because the batch was cancelled.
const ReasonBatchCancelled = "batch cancelled"

// ErrBatchNotRunning is returned by Cancel when the batch has no active
// dispatch loop.
var ErrBatchNotRunning = errors.New("batch is not running")

// ExecutorConfig holds orchestrator tuning knobs.
type ExecutorConfig struct {
	DefaultConcurrency   int
	MaxConcurrency       int
	WorkflowPollInterval time.Duration
	SyncPollInterval     time.Duration
	Aggregate            AggregatePolicy
}

// ExecuteRequest is a validated-at-entry request to run a batch.
type ExecuteRequest struct {
	Kind               domain.BatchKind
	RootTargetID       string
	IncludeDescendants bool
	Policy             domain.SkipPolicy
	Concurrency        int
	WorkflowKey        string
	SyncOptions        map[string]string
}

// Executor allocates batch records and drives eligible targets through a
// bounded-concurrency worker pool against the trigger collaborators.
// Execute returns immediately; the batch runs on a background context
// independent of any request lifetime.
type Executor struct {
	enumerator *Enumerator
	registry   *Registry
	workflow   trigger.Trigger
	syncer     trigger.Trigger
	cfg        ExecutorConfig
	metrics    *metrics.Metrics
	publisher  *events.Publisher
	log        logger.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewExecutor creates an executor. publisher may be nil.
func NewExecutor(
	enumerator *Enumerator,
	registry *Registry,
	workflow trigger.Trigger,
	syncer trigger.Trigger,
	cfg ExecutorConfig,
	m *metrics.Metrics,
	publisher *events.Publisher,
	log logger.Logger,
) *Executor {
	return &Executor{
		enumerator: enumerator,
		registry:   registry,
		workflow:   workflow,
		syncer:     syncer,
		cfg:        cfg,
		metrics:    m,
		publisher:  publisher,
		log:        log,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Execute validates the request, enumerates and filters targets
// synchronously, allocates the batch record and starts background
// dispatch. The returned batch id is always queryable, including when
// enumeration itself failed.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (string, error) {
	if err := e.validate(&req); err != nil {
		return "", err
	}

	batchID := uuid.New().String()
	now := time.Now().UTC()

	targets, err := e.enumerator.Enumerate(ctx, req.Kind, req.RootTargetID, req.IncludeDescendants)
	if err != nil {
		var enumErr *domain.EnumerationError
		if errors.As(err, &enumErr) {
			return batchID, e.createFailed(ctx, batchID, req, now, enumErr)
		}
		return "", err
	}

	record := &domain.BatchRecord{
		BatchID:            batchID,
		Kind:               req.Kind,
		WorkflowKey:        req.WorkflowKey,
		RootTargetID:       req.RootTargetID,
		IncludeDescendants: req.IncludeDescendants,
		Concurrency:        req.Concurrency,
		Status:             domain.BatchStatusPending,
		Total:              len(targets),
		CreatedAt:          now,
	}

	eligible := make([]domain.Target, 0, len(targets))
	for _, target := range targets {
		canExecute, reason := Evaluate(target, req.Policy)
		if canExecute {
			eligible = append(eligible, target)
			continue
		}
		appendResult(record, domain.TargetResult{
			TargetID:    target.ID,
			DisplayName: target.DisplayName,
			DisplayPath: target.DisplayPath,
			Outcome:     domain.OutcomeSkipped,
			SkipReason:  reason,
		})
	}

	e.registry.Create(ctx, record)
	e.metrics.BatchesStarted.WithLabelValues(req.Kind.String()).Inc()
	e.publisher.PublishAsync(events.NewBatchEvent(events.EventBatchCreated, record))

	batchCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancels[batchID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(batchCtx, batchID, req, eligible)

	e.log.Info("Batch submitted",
		logger.String("batch_id", batchID),
		logger.String("kind", req.Kind.String()),
		logger.String("root_target_id", req.RootTargetID),
		logger.Int("total", record.Total),
		logger.Int("eligible", len(eligible)),
		logger.Int("concurrency", req.Concurrency),
	)

	return batchID, nil
}

// Cancel stops dispatching new workers for the batch and cooperatively
// cancels in-flight ones. The batch transitions to cancelled once no
// worker remains active.
func (e *Executor) Cancel(batchID string) error {
	if _, err := e.registry.Get(batchID); err != nil {
		return err
	}

	e.mu.Lock()
	cancel, ok := e.cancels[batchID]
	e.mu.Unlock()
	if !ok {
		return ErrBatchNotRunning
	}

	cancel()
	e.log.Info("Batch cancellation requested",
		logger.String("batch_id", batchID),
	)
	return nil
}

// Shutdown cancels every active batch and waits for dispatch loops to
// finish or ctx to expire.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("executor shutdown: %w", ctx.Err())
	}
}

func (e *Executor) validate(req *ExecuteRequest) error {
	if !req.Kind.IsValid() {
		return domain.NewValidationError("kind", fmt.Sprintf("unknown batch kind %q", req.Kind))
	}
	if req.RootTargetID == "" {
		return domain.NewValidationError("root_target_id", "must not be empty")
	}
	if req.Concurrency == 0 {
		req.Concurrency = e.cfg.DefaultConcurrency
	}
	if req.Concurrency < 1 {
		return domain.NewValidationError("concurrency", "must be at least 1")
	}
	if e.cfg.MaxConcurrency > 0 && req.Concurrency > e.cfg.MaxConcurrency {
		return domain.NewValidationError("concurrency",
			fmt.Sprintf("must not exceed %d", e.cfg.MaxConcurrency))
	}
	if req.Kind == domain.BatchKindWorkflow && req.WorkflowKey == "" {
		return domain.NewValidationError("workflow_key", "required for workflow batches")
	}
	return nil
}

// createFailed records an enumeration failure as a batch created directly
// in terminal failed status, so the failure stays queryable by id.
func (e *Executor) createFailed(ctx context.Context, batchID string, req ExecuteRequest, now time.Time, enumErr *domain.EnumerationError) error {
	finished := now
	record := &domain.BatchRecord{
		BatchID:            batchID,
		Kind:               req.Kind,
		WorkflowKey:        req.WorkflowKey,
		RootTargetID:       req.RootTargetID,
		IncludeDescendants: req.IncludeDescendants,
		Concurrency:        req.Concurrency,
		Status:             domain.BatchStatusFailed,
		ErrorMessage:       enumErr.Error(),
		CreatedAt:          now,
		FinishedAt:         &finished,
	}

	e.registry.Create(ctx, record)
	e.metrics.BatchesStarted.WithLabelValues(req.Kind.String()).Inc()
	e.metrics.BatchesFinished.WithLabelValues(req.Kind.String(), record.Status.String()).Inc()
	e.publisher.PublishAsync(events.NewBatchEvent(events.EventBatchFinished, record))

	e.log.Warn("Batch enumeration failed",
		logger.String("batch_id", batchID),
		logger.String("root_target_id", req.RootTargetID),
		logger.Error(enumErr),
	)
	return nil
}

// run drives the eligible targets through a semaphore-bounded pool. Only
// this goroutine and its workers mutate the batch record, always through
// the registry.
func (e *Executor) run(ctx context.Context, batchID string, req ExecuteRequest, eligible []domain.Target) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, batchID)
		e.mu.Unlock()
	}()

	started, err := e.registry.Update(context.Background(), batchID, func(rec *domain.BatchRecord) {
		now := time.Now().UTC()
		rec.Status = domain.BatchStatusRunning
		rec.StartedAt = &now
	})
	if err != nil {
		e.log.Error("Batch disappeared before dispatch",
			logger.String("batch_id", batchID),
			logger.Error(err),
		)
		return
	}
	e.publisher.PublishAsync(events.NewBatchEvent(events.EventBatchStarted, started))

	sem := make(chan struct{}, req.Concurrency)
	var workers sync.WaitGroup

	for _, target := range eligible {
		select {
		case <-ctx.Done():
			e.recordResult(batchID, req.Kind, domain.TargetResult{
				TargetID:    target.ID,
				DisplayName: target.DisplayName,
				DisplayPath: target.DisplayPath,
				Outcome:     domain.OutcomeSkipped,
				SkipReason:  ReasonBatchCancelled,
			})
			continue
		case sem <- struct{}{}:
		}

		workers.Add(1)
		go func(target domain.Target) {
			defer func() {
				<-sem
				workers.Done()
			}()
			e.runTarget(ctx, batchID, req, target)
		}(target)
	}

	workers.Wait()
	e.finalize(ctx, batchID, req.Kind)
}

// runTarget waits on the external trigger until terminal and records the
// outcome. A single target's failure never aborts the batch or other
// in-flight workers.
func (e *Executor) runTarget(ctx context.Context, batchID string, req ExecuteRequest, target domain.Target) {
	e.metrics.InFlightTargets.Inc()
	defer e.metrics.InFlightTargets.Dec()

	trig, params, interval := e.triggerFor(req)

	startedAt := time.Now().UTC()
	err := trigger.AwaitTerminal(ctx, trig, target.ID, params, interval)
	finishedAt := time.Now().UTC()

	result := domain.TargetResult{
		TargetID:    target.ID,
		DisplayName: target.DisplayName,
		DisplayPath: target.DisplayPath,
		StartedAt:   &startedAt,
		FinishedAt:  &finishedAt,
	}

	switch {
	case err == nil:
		result.Outcome = domain.OutcomeSuccess
	case errors.Is(err, context.Canceled):
		result.Outcome = domain.OutcomeSkipped
		result.SkipReason = ReasonBatchCancelled
	default:
		result.Outcome = domain.OutcomeFailed
		result.Error = err.Error()
		e.log.Warn("Target trigger failed",
			logger.String("batch_id", batchID),
			logger.String("target_id", target.ID),
			logger.Error(err),
		)
	}

	e.recordResult(batchID, req.Kind, result)
}

func (e *Executor) triggerFor(req ExecuteRequest) (trigger.Trigger, trigger.Params, time.Duration) {
	if req.Kind == domain.BatchKindSync {
		return e.syncer, trigger.Params{Options: req.SyncOptions}, e.cfg.SyncPollInterval
	}
	return e.workflow, trigger.Params{WorkflowKey: req.WorkflowKey}, e.cfg.WorkflowPollInterval
}

func (e *Executor) recordResult(batchID string, kind domain.BatchKind, result domain.TargetResult) {
	e.metrics.TargetOutcomes.WithLabelValues(kind.String(), result.Outcome.String()).Inc()

	if _, err := e.registry.Update(context.Background(), batchID, func(rec *domain.BatchRecord) {
		appendResult(rec, result)
	}); err != nil {
		e.log.Error("Failed to record target result",
			logger.String("batch_id", batchID),
			logger.String("target_id", result.TargetID),
			logger.Error(err),
		)
	}
}

// finalize computes the terminal status once every eligible target has a
// recorded result.
func (e *Executor) finalize(ctx context.Context, batchID string, kind domain.BatchKind) {
	cancelled := ctx.Err() != nil

	final, err := e.registry.Update(context.Background(), batchID, func(rec *domain.BatchRecord) {
		agg := Aggregate(rec.Details.TargetResults, rec.Total, e.cfg.Aggregate)
		rec.Status = agg.Status
		if cancelled {
			rec.Status = domain.BatchStatusCancelled
		}
		now := time.Now().UTC()
		rec.FinishedAt = &now
	})
	if err != nil {
		e.log.Error("Failed to finalize batch",
			logger.String("batch_id", batchID),
			logger.Error(err),
		)
		return
	}

	e.metrics.BatchesFinished.WithLabelValues(kind.String(), final.Status.String()).Inc()
	e.publisher.PublishAsync(events.NewBatchEvent(events.EventBatchFinished, final))

	e.log.Info("Batch finished",
		logger.String("batch_id", batchID),
		logger.String("status", final.Status.String()),
		logger.Int("total", final.Total),
		logger.Int("success", final.SuccessCount),
		logger.Int("failed", final.FailedCount),
		logger.Int("skipped", final.SkippedCount),
	)
}

// appendResult appends a result and keeps the aggregate counters in step.
// Callers hold the record's registry lock.
func appendResult(rec *domain.BatchRecord, result domain.TargetResult) {
	rec.Details.TargetResults = append(rec.Details.TargetResults, result)
	switch result.Outcome {
	case domain.OutcomeSuccess:
		rec.SuccessCount++
	case domain.OutcomeFailed:
		rec.FailedCount++
	case domain.OutcomeSkipped:
		rec.SkippedCount++
	}
}
