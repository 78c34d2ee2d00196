package transformer

import (
	"context"
	"log/slog"
	"sync"
)

// Completion is a single-shot completion signal handed to asynchronous
// handlers. It must be fulfilled exactly once, with either Resolve or
// Reject. A second fulfillment is a contract violation: it is ignored and
// logged loudly rather than silently swallowed or allowed to corrupt the
// stage result.
type Completion[T any] struct {
	once sync.Once
	ch   chan outcome[T]
}

type outcome[T any] struct {
	value T
	err   error
}

// NewCompletion creates an unfulfilled completion.
func NewCompletion[T any]() *Completion[T] {
	return &Completion[T]{ch: make(chan outcome[T], 1)}
}

// Resolve fulfills the completion with a value.
func (c *Completion[T]) Resolve(value T) {
	c.fulfill(outcome[T]{value: value})
}

// Reject fulfills the completion with a failure. A nil error still counts as
// a rejection; it is normalized so callers can rely on err != nil.
func (c *Completion[T]) Reject(err error) {
	if err == nil {
		err = Fail("handler rejected with nil error")
	}
	c.fulfill(outcome[T]{err: err})
}

func (c *Completion[T]) fulfill(o outcome[T]) {
	delivered := false
	c.once.Do(func() {
		c.ch <- o
		delivered = true
	})
	if !delivered {
		slog.Error("completion fulfilled more than once; extra signal ignored")
	}
}

// Await blocks until the completion is fulfilled or the context is done.
func (c *Completion[T]) Await(ctx context.Context) (T, error) {
	select {
	case o := <-c.ch:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
