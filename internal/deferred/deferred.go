// Package deferred implements a single-assignment value that settles exactly
// once, either fulfilled with a value or rejected with an error.
//
// There is no microtask queue: continuations run synchronously, in
// registration order, at the moment the value settles, or immediately if it
// has already settled. Combined with a virtual clock this keeps asynchronous
// test code fully deterministic. A Deferred is not safe for concurrent use.
package deferred

import (
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Common errors for deferred values.
var (
	// ErrAlreadySettled is returned by Resolve or Reject on a value that has
	// already left the pending state.
	ErrAlreadySettled = errors.New("deferred value already settled")

	// ErrPending is returned by Await when the value has not settled yet.
	ErrPending = errors.New("deferred value still pending")

	// ErrNilReason is returned by Reject when called with a nil error.
	ErrNilReason = errors.New("rejection reason must not be nil")

	// ErrPassThrough rejects a chained value whose fulfilment could not be
	// passed through to a different result type.
	ErrPassThrough = errors.New("cannot pass fulfilled value through to chained type")

	// ErrNilDeferred rejects a value chained with ThenDeferred whose handler
	// returned nil.
	ErrNilDeferred = errors.New("handler returned a nil deferred value")
)

// State is the settlement state of a Deferred.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Observable is the type-erased view of a Deferred used for rejection
// tracking.
type Observable interface {
	State() State
	Handled() bool
	Reason() error
}

// Tracker is notified of every Deferred it is attached to, including values
// derived from them through Then.
type Tracker interface {
	Track(Observable)
}

// Deferred is a single-assignment container for a value of type T.
type Deferred[T any] struct {
	state     State
	value     T
	err       error
	callbacks []func()
	handled   bool
	tracker   Tracker
}

// New creates a pending Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{}
}

// Resolved creates a Deferred already fulfilled with v.
func Resolved[T any](v T) *Deferred[T] {
	return &Deferred[T]{state: Fulfilled, value: v}
}

// Failed creates a Deferred already rejected with err.
func Failed[T any](err error) *Deferred[T] {
	if err == nil {
		err = ErrNilReason
	}
	return &Deferred[T]{state: Rejected, err: err}
}

// FromResult creates a settled Deferred from an fn.Result.
func FromResult[T any](r fn.Result[T]) *Deferred[T] {
	v, err := r.Unpack()
	if r.IsErr() {
		return Failed[T](err)
	}
	return Resolved(v)
}

// Resolve fulfils a pending value and runs its continuations.
func (d *Deferred[T]) Resolve(v T) error {
	if d.state != Pending {
		return fmt.Errorf("resolve: %w (state %s)", ErrAlreadySettled, d.state)
	}
	d.state = Fulfilled
	d.value = v
	d.flush()
	return nil
}

// Reject rejects a pending value with err and runs its continuations.
func (d *Deferred[T]) Reject(err error) error {
	if d.state != Pending {
		return fmt.Errorf("reject: %w (state %s)", ErrAlreadySettled, d.state)
	}
	if err == nil {
		return ErrNilReason
	}
	d.state = Rejected
	d.err = err
	d.flush()
	return nil
}

// Settle resolves or rejects d according to r.
func (d *Deferred[T]) Settle(r fn.Result[T]) error {
	v, err := r.Unpack()
	if r.IsErr() {
		return d.Reject(err)
	}
	return d.Resolve(v)
}

// State returns the current settlement state.
func (d *Deferred[T]) State() State {
	return d.state
}

// Handled reports whether anything capable of observing a rejection has been
// attached: a rejection handler, a chained value, or Await.
func (d *Deferred[T]) Handled() bool {
	return d.handled
}

// Reason returns the rejection error, or nil unless rejected.
func (d *Deferred[T]) Reason() error {
	return d.err
}

// Result returns the terminal outcome, or None while pending.
func (d *Deferred[T]) Result() fn.Option[fn.Result[T]] {
	switch d.state {
	case Fulfilled:
		return fn.Some(fn.Ok(d.value))
	case Rejected:
		return fn.Some(fn.Err[T](d.err))
	default:
		return fn.None[fn.Result[T]]()
	}
}

// Await returns the settled value or rejection error. It never blocks:
// a pending value yields ErrPending, and the test is expected to advance its
// clock first. Awaiting marks a rejection as handled.
func (d *Deferred[T]) Await() (T, error) {
	d.handled = true
	switch d.state {
	case Fulfilled:
		return d.value, nil
	case Rejected:
		var zero T
		return zero, d.err
	default:
		var zero T
		return zero, ErrPending
	}
}

// OnSettle registers observers for fulfilment and rejection. Either may be
// nil. If d has already settled the matching observer runs before OnSettle
// returns.
func (d *Deferred[T]) OnSettle(onFulfilled func(T), onRejected func(error)) {
	if onRejected != nil {
		d.handled = true
	}
	d.subscribe(func() {
		switch d.state {
		case Fulfilled:
			if onFulfilled != nil {
				onFulfilled(d.value)
			}
		case Rejected:
			if onRejected != nil {
				onRejected(d.err)
			}
		}
	})
}

// TrackWith attaches t to d and reports d to it. Values chained from d
// inherit the tracker.
func (d *Deferred[T]) TrackWith(t Tracker) *Deferred[T] {
	if t == nil {
		return d
	}
	d.tracker = t
	t.Track(d)
	return d
}

func (d *Deferred[T]) subscribe(cb func()) {
	if d.state != Pending {
		cb()
		return
	}
	d.callbacks = append(d.callbacks, cb)
}

// flush runs and drops the registered continuations. Each runs at most once.
func (d *Deferred[T]) flush() {
	callbacks := d.callbacks
	d.callbacks = nil
	for _, cb := range callbacks {
		cb()
	}
}
