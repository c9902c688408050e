// Package events publishes batch lifecycle events to Redis Streams for
// dashboard consumption.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

// StreamName is the Redis stream batch events are published to.
const StreamName = "ydms:batch-events"

// EventType identifies a batch lifecycle transition.
type EventType string

const (
	EventBatchCreated  EventType = "batch.created"
	EventBatchStarted  EventType = "batch.started"
	EventBatchFinished EventType = "batch.finished"
)

// BatchEvent is one lifecycle event of a batch.
type BatchEvent struct {
	EventID   uuid.UUID          `json:"event_id"`
	EventType EventType          `json:"event_type"`
	BatchID   string             `json:"batch_id"`
	Kind      domain.BatchKind   `json:"kind"`
	Status    domain.BatchStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewBatchEvent builds an event from a batch record snapshot.
func NewBatchEvent(eventType EventType, record *domain.BatchRecord) BatchEvent {
	return BatchEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		BatchID:   record.BatchID,
		Kind:      record.Kind,
		Status:    record.Status,
		Timestamp: time.Now().UTC(),
	}
}
