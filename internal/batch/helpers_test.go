package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prehisle/ydms-sub001/internal/directory"
	"github.com/prehisle/ydms-sub001/internal/trigger"
)

// fakeDirectory serves a canned tree from memory.
type fakeDirectory struct {
	nodes     map[string]*directory.Node
	children  map[string][]directory.Node
	documents map[string][]directory.Document

	getNodeErr         error
	listDescendantsErr error
	listDocumentsErr   error
}

func (f *fakeDirectory) GetNode(_ context.Context, id string) (*directory.Node, error) {
	if f.getNodeErr != nil {
		return nil, f.getNodeErr
	}
	node, ok := f.nodes[id]
	if !ok {
		return nil, errors.New("node not found")
	}
	return node, nil
}

func (f *fakeDirectory) ListDescendants(_ context.Context, rootID string) ([]directory.Node, error) {
	if f.listDescendantsErr != nil {
		return nil, f.listDescendantsErr
	}
	return f.children[rootID], nil
}

func (f *fakeDirectory) ListDocuments(_ context.Context, nodeID string, _ bool) ([]directory.Document, error) {
	if f.listDocumentsErr != nil {
		return nil, f.listDocumentsErr
	}
	return f.documents[nodeID], nil
}

// fakeTrigger completes jobs on the first poll. Failures are configured per
// target id.
type fakeTrigger struct {
	mu       sync.Mutex
	failures map[string]string // target id -> failure message
	calls    []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeTrigger() *fakeTrigger {
	return &fakeTrigger{failures: make(map[string]string)}
}

func (f *fakeTrigger) failTarget(targetID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[targetID] = message
}

func (f *fakeTrigger) triggered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeTrigger) Trigger(_ context.Context, targetID string, _ trigger.Params) (string, error) {
	current := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, targetID)
	f.mu.Unlock()
	return targetID, nil
}

func (f *fakeTrigger) Poll(_ context.Context, handle string) (*trigger.JobResult, error) {
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	message, failed := f.failures[handle]
	f.mu.Unlock()

	if failed {
		return &trigger.JobResult{State: trigger.StateFailed, Message: message}, nil
	}
	return &trigger.JobResult{State: trigger.StateSucceeded}, nil
}
