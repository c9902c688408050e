package batch

import (
	"context"
	"sort"
	"sync"

	"github.com/prehisle/ydms-sub001/internal/domain"
	"github.com/prehisle/ydms-sub001/internal/logger"
)

// Store persists batch record snapshots. The registry writes through to it
// on create and update; store failures are logged, never propagated into
// batch progress.
type Store interface {
	Insert(ctx context.Context, record *domain.BatchRecord) error
	Update(ctx context.Context, record *domain.BatchRecord) error
}

// ListFilter narrows a registry listing.
type ListFilter struct {
	Kind        domain.BatchKind // zero value = all kinds
	WorkflowKey string           // empty = all keys
}

// Registry is the single owner of all live BatchRecord instances. All
// mutation goes through Create/Update; reads hand out deep-copied
// snapshots. Mutation is serialized per batch id so concurrent worker
// completions never race on the aggregate counters.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry

	store Store // optional
	log   logger.Logger
}

type registryEntry struct {
	mu     sync.Mutex
	record *domain.BatchRecord
}

// NewRegistry creates a registry. store may be nil for purely in-memory
// operation.
func NewRegistry(store Store, log logger.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		store:   store,
		log:     log,
	}
}

// Create registers a new batch record.
func (r *Registry) Create(ctx context.Context, record *domain.BatchRecord) {
	entry := &registryEntry{record: record.Clone()}

	r.mu.Lock()
	r.entries[record.BatchID] = entry
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Insert(ctx, record); err != nil {
			r.log.Warn("Batch history insert failed",
				logger.String("batch_id", record.BatchID),
				logger.Error(err),
			)
		}
	}
}

// Update applies mutate under the record's lock and returns the resulting
// snapshot. The mutator must not block; trigger waits happen outside the
// registry.
func (r *Registry) Update(ctx context.Context, batchID string, mutate func(*domain.BatchRecord)) (*domain.BatchRecord, error) {
	r.mu.RLock()
	entry, ok := r.entries[batchID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrBatchNotFound
	}

	entry.mu.Lock()
	mutate(entry.record)
	snapshot := entry.record.Clone()
	entry.mu.Unlock()

	if r.store != nil {
		if err := r.store.Update(ctx, snapshot); err != nil {
			r.log.Warn("Batch history update failed",
				logger.String("batch_id", batchID),
				logger.Error(err),
			)
		}
	}

	return snapshot, nil
}

// Get returns a snapshot of the record, or ErrBatchNotFound.
func (r *Registry) Get(batchID string) (*domain.BatchRecord, error) {
	r.mu.RLock()
	entry, ok := r.entries[batchID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrBatchNotFound
	}

	entry.mu.Lock()
	snapshot := entry.record.Clone()
	entry.mu.Unlock()
	return snapshot, nil
}

// List returns snapshots ordered by created_at descending, after applying
// the filter, paginated by limit/offset. The second return value is the
// total number of matching records before pagination.
func (r *Registry) List(filter ListFilter, limit, offset int) ([]*domain.BatchRecord, int) {
	r.mu.RLock()
	matched := make([]*domain.BatchRecord, 0, len(r.entries))
	for _, entry := range r.entries {
		entry.mu.Lock()
		record := entry.record
		keep := true
		if filter.Kind != "" && record.Kind != filter.Kind {
			keep = false
		}
		if filter.WorkflowKey != "" && record.WorkflowKey != filter.WorkflowKey {
			keep = false
		}
		if keep {
			matched = append(matched, record.Clone())
		}
		entry.mu.Unlock()
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].BatchID > matched[j].BatchID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return []*domain.BatchRecord{}, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total
}

// Hydrate seeds the registry with records loaded from the durable store at
// startup. Existing entries with the same id are overwritten.
func (r *Registry) Hydrate(records []*domain.BatchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records {
		r.entries[record.BatchID] = &registryEntry{record: record.Clone()}
	}
}
