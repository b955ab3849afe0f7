package harness

import (
	"errors"
	"fmt"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/registry"
	"github.com/gourl/asyncharness/internal/snapshot"
	"github.com/gourl/asyncharness/internal/vclock"
)

// Common errors reported by tests.
var (
	// ErrAssertion is wrapped by every failed Recorder assertion.
	ErrAssertion = errors.New("assertion failed")

	// ErrUnhandledRejection fails a test that left a rejected value without
	// any handler attached.
	ErrUnhandledRejection = errors.New("unhandled rejection")
)

// failureKinds are the errors that make a test Fail rather than Error.
var failureKinds = []error{
	ErrAssertion,
	ErrUnhandledRejection,
	deferred.ErrAlreadySettled,
	registry.ErrUnknownDependency,
	registry.ErrUnconfiguredDependency,
	vclock.ErrDivergentTimer,
	snapshot.ErrSnapshotMismatch,
}

// IsFailure reports whether err is one of the harness failure kinds, as
// opposed to an unexpected error raised by the code under test.
func IsFailure(err error) bool {
	var p *PanicError
	if errors.As(err, &p) {
		return false
	}
	for _, kind := range failureKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// PanicError wraps a value recovered from a panicking test.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("test panicked: %v", e.Value)
}

// Unwrap exposes a panic raised with an error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
