package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

func TestBatchStatusIsTerminal(t *testing.T) {
	assert.False(t, domain.BatchStatusPending.IsTerminal())
	assert.False(t, domain.BatchStatusRunning.IsTerminal())
	assert.True(t, domain.BatchStatusCompleted.IsTerminal())
	assert.True(t, domain.BatchStatusFailed.IsTerminal())
	assert.True(t, domain.BatchStatusCancelled.IsTerminal())
}

func TestBatchKindIsValid(t *testing.T) {
	assert.True(t, domain.BatchKindWorkflow.IsValid())
	assert.True(t, domain.BatchKindSync.IsValid())
	assert.False(t, domain.BatchKind("reindex").IsValid())
	assert.False(t, domain.BatchKind("").IsValid())
}

func TestBatchRecordProgress(t *testing.T) {
	record := &domain.BatchRecord{Total: 4, SuccessCount: 1, FailedCount: 1, SkippedCount: 1}
	assert.InDelta(t, 75, record.Progress(), 0.001)
	assert.Equal(t, 3, record.Recorded())

	empty := &domain.BatchRecord{Total: 0}
	assert.Zero(t, empty.Progress())
}

func TestBatchRecordClone(t *testing.T) {
	started := time.Now().UTC()
	record := &domain.BatchRecord{
		BatchID:   "b1",
		Status:    domain.BatchStatusRunning,
		Total:     2,
		StartedAt: &started,
		Details: domain.BatchDetails{
			TargetResults: []domain.TargetResult{
				{TargetID: "n1", Outcome: domain.OutcomeSuccess},
			},
		},
	}

	clone := record.Clone()
	clone.Status = domain.BatchStatusFailed
	*clone.StartedAt = clone.StartedAt.Add(time.Hour)
	clone.Details.TargetResults[0].Outcome = domain.OutcomeFailed
	clone.Details.TargetResults = append(clone.Details.TargetResults, domain.TargetResult{TargetID: "n2"})

	assert.Equal(t, domain.BatchStatusRunning, record.Status)
	assert.Equal(t, started, *record.StartedAt)
	assert.Equal(t, domain.OutcomeSuccess, record.Details.TargetResults[0].Outcome)
	assert.Len(t, record.Details.TargetResults, 1)
}

func TestValidationError(t *testing.T) {
	err := domain.NewValidationError("concurrency", "must be at least 1")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "invalid concurrency: must be at least 1", err.Error())

	assert.False(t, domain.IsValidation(domain.ErrBatchNotFound))
}
