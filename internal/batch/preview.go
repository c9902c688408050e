package batch

import (
	"context"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

// Previewer composes enumeration and filtering into a synchronous,
// side-effect-free dry run. It never touches a trigger collaborator and is
// safe to call repeatedly and concurrently.
type Previewer struct {
	enumerator *Enumerator
}

// NewPreviewer creates a previewer.
func NewPreviewer(enumerator *Enumerator) *Previewer {
	return &Previewer{enumerator: enumerator}
}

// Preview enumerates candidates under the root and reports, per target,
// whether it would execute and why not otherwise.
func (p *Previewer) Preview(ctx context.Context, kind domain.BatchKind, rootID string, includeDescendants bool, policy domain.SkipPolicy) (*domain.PreviewResult, error) {
	targets, err := p.enumerator.Enumerate(ctx, kind, rootID, includeDescendants)
	if err != nil {
		return nil, err
	}

	result := &domain.PreviewResult{
		Total: len(targets),
		Items: make([]domain.TargetPreviewItem, 0, len(targets)),
	}

	for _, target := range targets {
		canExecute, reason := Evaluate(target, policy)
		if canExecute {
			result.CanExecuteCount++
		} else {
			result.WillSkipCount++
		}
		result.Items = append(result.Items, domain.TargetPreviewItem{
			TargetID:    target.ID,
			DisplayName: target.DisplayName,
			DisplayPath: target.DisplayPath,
			CanExecute:  canExecute,
			SkipReason:  reason,
		})
	}

	return result, nil
}
