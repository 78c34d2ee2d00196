// Package eventstore persists pipeline run events to SQLite, giving watch
// and daemon modes a queryable history of past runs.
package eventstore

import (
	"context"
	"time"
)

// Record is one persisted pipeline event.
type Record struct {
	ID        int64
	RunID     string
	EventType string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Store persists and retrieves pipeline run events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// ByRun retrieves all events for one pipeline run, oldest first.
	ByRun(ctx context.Context, runID string) ([]Record, error)

	// Range retrieves events within a time range, oldest first.
	Range(ctx context.Context, start, end time.Time) ([]Record, error)

	// Close releases store resources.
	Close() error
}
