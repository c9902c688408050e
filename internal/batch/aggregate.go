package batch

import (
	"github.com/prehisle/ydms-sub001/internal/domain"
)

// AggregatePolicy controls how per-target failures map to the batch's own
// terminal status. The reference behavior leaves a batch `completed` even
// when some targets failed, exposing failed_count for the client to react
// to; FailureFlipsBatch makes any failure flip the batch to `failed`.
type AggregatePolicy struct {
	FailureFlipsBatch bool
}

// Aggregation is the derived view of a batch's per-target outcomes.
type Aggregation struct {
	Status       domain.BatchStatus
	SuccessCount int
	FailedCount  int
	SkippedCount int
	Progress     float64
}

const progressScale = 100

// Aggregate maps a batch's recorded target results to overall status and
// numeric progress. Pure function: invoked after every target completion
// and exposed verbatim through the status-query contract.
func Aggregate(results []domain.TargetResult, total int, policy AggregatePolicy) Aggregation {
	agg := Aggregation{}
	for _, r := range results {
		switch r.Outcome {
		case domain.OutcomeSuccess:
			agg.SuccessCount++
		case domain.OutcomeFailed:
			agg.FailedCount++
		case domain.OutcomeSkipped:
			agg.SkippedCount++
		}
	}

	recorded := agg.SuccessCount + agg.FailedCount + agg.SkippedCount
	if total > 0 {
		agg.Progress = progressScale * float64(recorded) / float64(total)
	}

	switch {
	case recorded == 0 && total > 0:
		agg.Status = domain.BatchStatusPending
	case recorded < total:
		agg.Status = domain.BatchStatusRunning
	case policy.FailureFlipsBatch && agg.FailedCount > 0:
		agg.Status = domain.BatchStatusFailed
	default:
		agg.Status = domain.BatchStatusCompleted
	}

	return agg
}
