// Package domain provides the core data model for batch operations.
package domain

import (
	"time"
)

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// IsValid reports whether s is a known batch status.
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusRunning, BatchStatusCompleted,
		BatchStatusFailed, BatchStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the batch will never change state again.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return true
	default:
		return false
	}
}

func (s BatchStatus) String() string {
	return string(s)
}

// BatchKind selects which trigger collaborator a batch drives.
type BatchKind string

const (
	// BatchKindWorkflow runs a content-generation workflow per node.
	BatchKindWorkflow BatchKind = "workflow"
	// BatchKindSync runs a MySQL-sync job per document.
	BatchKindSync BatchKind = "sync"
)

// IsValid reports whether k is a known batch kind.
func (k BatchKind) IsValid() bool {
	return k == BatchKindWorkflow || k == BatchKindSync
}

func (k BatchKind) String() string {
	return string(k)
}

// TargetOutcome is the recorded result of one dispatched target.
type TargetOutcome string

const (
	OutcomeSuccess TargetOutcome = "success"
	OutcomeFailed  TargetOutcome = "failed"
	OutcomeSkipped TargetOutcome = "skipped"
)

// IsValid reports whether o is a known outcome.
func (o TargetOutcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailed, OutcomeSkipped:
		return true
	default:
		return false
	}
}

func (o TargetOutcome) String() string {
	return string(o)
}

// TargetResult is one per-target outcome persisted inside a batch record.
// Order of results follows completion, not enumeration; consumers must key
// on TargetID.
type TargetResult struct {
	TargetID    string        `json:"target_id"`
	DisplayName string        `json:"display_name"`
	DisplayPath string        `json:"display_path"`
	Outcome     TargetOutcome `json:"outcome"`
	Error       string        `json:"error,omitempty"`
	SkipReason  string        `json:"skip_reason,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// BatchDetails holds the append-only audit trail of a batch.
type BatchDetails struct {
	TargetResults []TargetResult `json:"target_results"`
}

// BatchRecord is the unit of orchestration state.
type BatchRecord struct {
	BatchID            string       `json:"batch_id"`
	Kind               BatchKind    `json:"kind"`
	WorkflowKey        string       `json:"workflow_key,omitempty"`
	RootTargetID       string       `json:"root_target_id"`
	IncludeDescendants bool         `json:"include_descendants"`
	Concurrency        int          `json:"concurrency"`
	Status             BatchStatus  `json:"status"`
	Total              int          `json:"total"`
	SuccessCount       int          `json:"success_count"`
	FailedCount        int          `json:"failed_count"`
	SkippedCount       int          `json:"skipped_count"`
	ErrorMessage       string       `json:"error_message,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	FinishedAt         *time.Time   `json:"finished_at,omitempty"`
	Details            BatchDetails `json:"details"`
}

const progressScale = 100

// Progress returns completion in [0, 100], derived from the counters.
func (b *BatchRecord) Progress() float64 {
	if b.Total == 0 {
		return 0
	}
	done := b.SuccessCount + b.FailedCount + b.SkippedCount
	return progressScale * float64(done) / float64(b.Total)
}

// Recorded returns how many targets have a result so far.
func (b *BatchRecord) Recorded() int {
	return b.SuccessCount + b.FailedCount + b.SkippedCount
}

// Clone returns a deep copy of the record so callers can hand out
// snapshots without exposing registry-owned state.
func (b *BatchRecord) Clone() *BatchRecord {
	out := *b
	if b.StartedAt != nil {
		t := *b.StartedAt
		out.StartedAt = &t
	}
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		out.FinishedAt = &t
	}
	out.Details.TargetResults = make([]TargetResult, len(b.Details.TargetResults))
	copy(out.Details.TargetResults, b.Details.TargetResults)
	return &out
}
