package transformer

import (
	"errors"
	"fmt"
)

// Failure carries an arbitrary raised value through the error channel.
//
// Handlers normally fail by returning an error, which the engine propagates
// to the caller of TransformPages without wrapping. A handler that needs to
// raise a value that is not an error (a bare string, a structured payload)
// wraps it with Fail; the original value is recoverable via FailureValue.
type Failure struct {
	Value any
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("pipeline failure: %v", f.Value)
}

// Fail converts an arbitrary raised value into an error suitable for
// returning from a handler. Error values pass through unchanged so their
// identity is preserved.
func Fail(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &Failure{Value: v}
}

// FailureValue recovers the original raised value from a pipeline error.
// For errors produced by Fail it returns the wrapped value; for any other
// error it returns the error itself.
func FailureValue(err error) any {
	var f *Failure
	if errors.As(err, &f) {
		return f.Value
	}
	return err
}
