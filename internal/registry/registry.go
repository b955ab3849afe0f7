// Package registry substitutes fake implementations for external
// dependencies and records every invocation.
//
// A Registry is meant to be created at the start of a test and dropped at
// its end, so no call history leaks between tests.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/metrics"
	"github.com/gourl/asyncharness/pkg/logger"
)

// Common errors for dependency substitution.
var (
	// ErrUnknownDependency is returned by query accessors for a name that was
	// never registered.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrUnconfiguredDependency rejects invocations of a name that has no
	// registered behavior.
	ErrUnconfiguredDependency = errors.New("dependency invoked without configuration")

	// ErrCallIndexOutOfRange is returned by CallArgs for an index beyond the
	// recorded calls.
	ErrCallIndexOutOfRange = errors.New("call index out of range")

	// ErrUnexpectedType rejects a typed invocation whose fake produced a value
	// of the wrong type.
	ErrUnexpectedType = errors.New("fake returned unexpected type")
)

// Call is one recorded invocation.
type Call struct {
	ID    uuid.UUID
	Name  string
	Index int
	Args  []any
}

type dependency struct {
	behavior Behavior
	calls    []Call
}

// Registry maps dependency names to fake behaviors.
type Registry struct {
	deps         map[string]*dependency
	unconfigured []string
	tracker      deferred.Tracker
	log          *logger.Logger
}

// New creates an empty Registry. Values returned by Invoke are reported to
// tracker when it is non-nil.
func New(tracker deferred.Tracker, log *logger.Logger) *Registry {
	return &Registry{
		deps:    make(map[string]*dependency),
		tracker: tracker,
		log:     log.With("component", "registry"),
	}
}

// Register associates name with behavior. Registering again replaces the
// behavior but keeps the call history.
func (r *Registry) Register(name string, behavior Behavior) {
	dep, ok := r.deps[name]
	if !ok {
		dep = &dependency{}
		r.deps[name] = dep
	}
	dep.behavior = behavior

	r.log.Debug("dependency registered", "dependency", name)
}

// Reset clears the call history of name.
func (r *Registry) Reset(name string) error {
	dep, ok := r.deps[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	dep.calls = nil
	return nil
}

// Invoke records a call to name and returns the outcome of its behavior.
// Calling an unregistered name returns a value rejected with
// ErrUnconfiguredDependency.
func (r *Registry) Invoke(name string, args ...any) *deferred.Deferred[any] {
	dep, ok := r.deps[name]
	if !ok || dep.behavior == nil {
		r.unconfigured = append(r.unconfigured, name)
		r.log.Warn("unconfigured dependency invoked", "dependency", name)
		metrics.RecordInvocation("unconfigured")

		err := fmt.Errorf("%w: %q", ErrUnconfiguredDependency, name)
		return deferred.Failed[any](err).TrackWith(r.tracker)
	}

	call := Call{
		ID:    uuid.New(),
		Name:  name,
		Index: len(dep.calls),
		Args:  append([]any(nil), args...),
	}
	dep.calls = append(dep.calls, call)

	out := dep.behavior(call)
	if out == nil {
		out = deferred.Resolved[any](nil)
	}
	out.TrackWith(r.tracker)

	r.log.Debug("dependency invoked", "dependency", name, "call", call.Index, "state", out.State().String())
	metrics.RecordInvocation(out.State().String())
	return out
}

// CallCount returns how many times name has been invoked.
func (r *Registry) CallCount(name string) (int, error) {
	dep, ok := r.deps[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	return len(dep.calls), nil
}

// CallArgs returns the arguments of the index-th call to name.
func (r *Registry) CallArgs(name string, index int) ([]any, error) {
	dep, ok := r.deps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	if index < 0 || index >= len(dep.calls) {
		return nil, fmt.Errorf("%w: %q has %d calls, asked for %d",
			ErrCallIndexOutOfRange, name, len(dep.calls), index)
	}
	return append([]any(nil), dep.calls[index].Args...), nil
}

// Calls returns the recorded calls to name in invocation order.
func (r *Registry) Calls(name string) ([]Call, error) {
	dep, ok := r.deps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	return append([]Call(nil), dep.calls...), nil
}

// Names returns the registered dependency names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.deps))
	for name := range r.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unconfigured returns the names invoked without a registered behavior, in
// invocation order.
func (r *Registry) Unconfigured() []string {
	return append([]string(nil), r.unconfigured...)
}

// Typed returns a function invoking name whose results are asserted to T.
func Typed[T any](r *Registry, name string) func(args ...any) *deferred.Deferred[T] {
	return func(args ...any) *deferred.Deferred[T] {
		return deferred.Then(r.Invoke(name, args...), func(v any) (T, error) {
			if v == nil {
				var zero T
				return zero, nil
			}
			t, ok := v.(T)
			if !ok {
				var zero T
				return zero, fmt.Errorf("%w: %q returned %T", ErrUnexpectedType, name, v)
			}
			return t, nil
		}, nil)
	}
}
