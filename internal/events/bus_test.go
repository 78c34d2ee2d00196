package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var seen []string
	bus.Subscribe(func(e Event) { seen = append(seen, e.Type) })

	bus.PipelineStarted("run-1", 2)
	bus.StageCompleted("run-1", "transform", 2, time.Millisecond)
	bus.PipelineFinished("run-1", 2, time.Millisecond, nil)

	want := []string{TypeRunStarted, TypeStageCompleted, TypeRunFinished}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("event order broken: %v", seen)
		}
	}
}

func TestBusFailureEvent(t *testing.T) {
	bus := NewBus()
	var last Event
	bus.Subscribe(func(e Event) { last = e })

	bus.PipelineFinished("run-1", 0, time.Millisecond, errors.New("boom"))

	if last.Type != TypeRunFailed {
		t.Errorf("expected %s, got %s", TypeRunFailed, last.Type)
	}
	if last.Error != "boom" {
		t.Errorf("error text lost: %q", last.Error)
	}
}

type memStore struct {
	appended []string
	fail     bool
}

func (m *memStore) Append(_ context.Context, runID, eventType string, payload []byte, _ map[string]string) error {
	if m.fail {
		return errors.New("store down")
	}
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return err
	}
	m.appended = append(m.appended, eventType)
	return nil
}

func TestBusPersistsBeforeDelivery(t *testing.T) {
	store := &memStore{}
	bus := NewBusWithStore(store, nil)

	delivered := false
	bus.Subscribe(func(e Event) {
		delivered = true
		if len(store.appended) == 0 {
			t.Error("event must be persisted before handler delivery")
		}
	})

	bus.PipelineStarted("run-1", 1)
	if !delivered {
		t.Fatal("handler not invoked")
	}
}

func TestBusStoreFailureDoesNotBlockDelivery(t *testing.T) {
	bus := NewBusWithStore(&memStore{fail: true}, nil)

	delivered := false
	bus.Subscribe(func(e Event) { delivered = true })
	bus.PipelineStarted("run-1", 1)

	if !delivered {
		t.Fatal("persistence failure must not stop delivery")
	}
}

func TestBusStampsTime(t *testing.T) {
	bus := NewBus()
	var at time.Time
	bus.Subscribe(func(e Event) { at = e.At })
	bus.Publish(Event{Type: TypeRunStarted})

	if at.IsZero() {
		t.Error("bus should stamp missing timestamps")
	}
}
