// Package events publishes pipeline lifecycle events to in-process
// subscribers, with optional persistence and an optional NATS mirror for
// external consumers.
package events

import (
	"time"
)

// Event types emitted over a pipeline run.
const (
	TypeRunStarted     = "run.started"
	TypeStageCompleted = "stage.completed"
	TypeRunFinished    = "run.finished"
	TypeRunFailed      = "run.failed"
)

// Event describes one pipeline lifecycle occurrence.
type Event struct {
	RunID   string        `json:"run_id"`
	Type    string        `json:"type"`
	Stage   string        `json:"stage,omitempty"`
	Pages   int           `json:"pages"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
	Error   string        `json:"error,omitempty"`
	At      time.Time     `json:"at"`
}

// Handler processes a published event. Handlers run synchronously on the
// publishing goroutine and must not block for long.
type Handler func(Event)
