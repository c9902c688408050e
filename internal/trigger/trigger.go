// Package trigger provides clients for the external engines that perform
// the actual per-target work: the workflow engine (content generation per
// node) and the sync engine (MySQL sync per document).
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State is the observed state of an external job.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the external job has finished.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Params carries kind-specific trigger parameters.
type Params struct {
	// WorkflowKey selects the workflow definition (workflow batches).
	WorkflowKey string
	// Options carries free-form sync options (sync batches).
	Options map[string]string
}

// JobResult is the terminal observation of an external job.
type JobResult struct {
	State   State
	Message string
}

// Trigger starts work for a single eligible target and reports its
// progress. Implementations make no retry guarantees; the orchestrator
// records whatever outcome it observes.
type Trigger interface {
	// Trigger starts the external job and returns an opaque handle.
	Trigger(ctx context.Context, targetID string, params Params) (handle string, err error)
	// Poll reports the current state of a previously triggered job.
	Poll(ctx context.Context, handle string) (*JobResult, error)
}

// ErrJobFailed is returned by AwaitTerminal when the external job itself
// finished in a failed state.
var ErrJobFailed = errors.New("external job failed")

// AwaitTerminal triggers the job and polls at interval until it reaches a
// terminal state or ctx is cancelled. A rejected trigger call and a job
// that terminates failed both surface as errors; callers record them as a
// per-target failure, never as a batch abort.
func AwaitTerminal(ctx context.Context, t Trigger, targetID string, params Params, interval time.Duration) error {
	handle, err := t.Trigger(ctx, targetID, params)
	if err != nil {
		return fmt.Errorf("trigger %s: %w", targetID, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		result, pollErr := t.Poll(ctx, handle)
		if pollErr != nil {
			return fmt.Errorf("poll job %s: %w", handle, pollErr)
		}
		if !result.State.IsTerminal() {
			continue
		}
		if result.State == StateFailed {
			if result.Message != "" {
				return fmt.Errorf("%w: %s", ErrJobFailed, result.Message)
			}
			return ErrJobFailed
		}
		return nil
	}
}
