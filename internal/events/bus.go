package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Store is the subset of the event store the bus needs. Kept local to avoid
// a package cycle with internal/eventstore.
type Store interface {
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error
}

// Bus is a synchronous pub/sub bus for pipeline events. It satisfies the
// transformer's Observer contract, so a bus can be attached directly with
// WithObserver.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	store    Store // optional persistence
	logger   *slog.Logger
}

// NewBus creates a bus without persistence.
func NewBus() *Bus { return &Bus{logger: slog.Default()} }

// NewBusWithStore creates a bus that persists every event before delivery.
// Persistence failures are logged, never allowed to fail the build.
func NewBusWithStore(store Store, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{store: store, logger: logger}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish persists (if configured) and delivers an event to all handlers
// synchronously.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	if b.store != nil {
		payload, err := json.Marshal(e)
		if err == nil {
			err = b.store.Append(context.Background(), e.RunID, e.Type, payload, nil)
		}
		if err != nil {
			b.logger.Warn("event persistence failed", "type", e.Type, "error", err)
		}
	}

	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(e)
	}
}

// PipelineStarted implements the transformer observer contract.
func (b *Bus) PipelineStarted(runID string, pages int) {
	b.Publish(Event{RunID: runID, Type: TypeRunStarted, Pages: pages})
}

// StageCompleted implements the transformer observer contract.
func (b *Bus) StageCompleted(runID, stage string, pages int, elapsed time.Duration) {
	b.Publish(Event{RunID: runID, Type: TypeStageCompleted, Stage: stage, Pages: pages, Elapsed: elapsed})
}

// PipelineFinished implements the transformer observer contract.
func (b *Bus) PipelineFinished(runID string, pages int, elapsed time.Duration, err error) {
	e := Event{RunID: runID, Type: TypeRunFinished, Pages: pages, Elapsed: elapsed}
	if err != nil {
		e.Type = TypeRunFailed
		e.Error = err.Error()
	}
	b.Publish(e)
}
