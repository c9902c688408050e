// Package batch implements the batch operation orchestrator: target
// enumeration, eligibility filtering, preview, bounded-concurrency
// execution and batch state tracking.
package batch

import (
	"context"
	"fmt"

	"github.com/prehisle/ydms-sub001/internal/directory"
	"github.com/prehisle/ydms-sub001/internal/domain"
)

// Enumerator expands a root target into the ordered set of candidate
// targets by querying the content repository. Pure read, no mutation.
type Enumerator struct {
	dir directory.Directory
}

// NewEnumerator creates an enumerator over the given directory.
func NewEnumerator(dir directory.Directory) *Enumerator {
	return &Enumerator{dir: dir}
}

// Enumerate produces the candidate targets for a batch of the given kind.
// Workflow batches enumerate tree nodes; sync batches enumerate the
// documents under the root node. Any failure aborts enumeration as a
// whole — it never partially succeeds.
func (e *Enumerator) Enumerate(ctx context.Context, kind domain.BatchKind, rootID string, includeDescendants bool) ([]domain.Target, error) {
	switch kind {
	case domain.BatchKindWorkflow:
		return e.enumerateNodes(ctx, rootID, includeDescendants)
	case domain.BatchKindSync:
		return e.enumerateDocuments(ctx, rootID, includeDescendants)
	default:
		return nil, fmt.Errorf("unknown batch kind %q", kind)
	}
}

func (e *Enumerator) enumerateNodes(ctx context.Context, rootID string, includeDescendants bool) ([]domain.Target, error) {
	root, err := e.dir.GetNode(ctx, rootID)
	if err != nil {
		return nil, &domain.EnumerationError{RootTargetID: rootID, Err: err}
	}

	targets := []domain.Target{nodeTarget(root)}
	if !includeDescendants {
		return targets, nil
	}

	descendants, err := e.dir.ListDescendants(ctx, rootID)
	if err != nil {
		return nil, &domain.EnumerationError{RootTargetID: rootID, Err: err}
	}
	for i := range descendants {
		targets = append(targets, nodeTarget(&descendants[i]))
	}
	return targets, nil
}

func (e *Enumerator) enumerateDocuments(ctx context.Context, rootID string, includeDescendants bool) ([]domain.Target, error) {
	// Resolve the root first so a missing node surfaces as root-not-found
	// rather than an empty document list.
	if _, err := e.dir.GetNode(ctx, rootID); err != nil {
		return nil, &domain.EnumerationError{RootTargetID: rootID, Err: err}
	}

	documents, err := e.dir.ListDocuments(ctx, rootID, includeDescendants)
	if err != nil {
		return nil, &domain.EnumerationError{RootTargetID: rootID, Err: err}
	}

	targets := make([]domain.Target, 0, len(documents))
	for i := range documents {
		targets = append(targets, documentTarget(&documents[i]))
	}
	return targets, nil
}

func nodeTarget(n *directory.Node) domain.Target {
	return domain.Target{
		ID:             n.ID,
		Kind:           domain.TargetKindNode,
		DisplayName:    n.Name,
		DisplayPath:    n.Path,
		SourceDocCount: n.SourceDocCount,
		OutputDocCount: n.OutputDocCount,
	}
}

func documentTarget(d *directory.Document) domain.Target {
	return domain.Target{
		ID:            d.ID,
		Kind:          domain.TargetKindDocument,
		DisplayName:   d.Title,
		DisplayPath:   d.Path,
		DocType:       d.DocType,
		HasSyncConfig: d.HasSyncConfig,
	}
}
