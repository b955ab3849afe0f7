package deferred

import "fmt"

// Then chains d into a new value settled by whichever handler fires. A nil
// onFulfilled passes the value through (it must be assignable to U). A nil
// onRejected passes the rejection through unchanged. A handler returning an
// error rejects the chained value.
//
// When d has already settled the handler runs before Then returns.
func Then[T, U any](d *Deferred[T], onFulfilled func(T) (U, error), onRejected func(error) (U, error)) *Deferred[U] {
	next := New[U]()
	next.TrackWith(d.tracker)

	// The chained value carries any rejection forward, so d itself is
	// handled.
	d.handled = true

	d.subscribe(func() {
		switch d.state {
		case Fulfilled:
			if onFulfilled == nil {
				passValue(next, d.value)
				return
			}
			v, err := onFulfilled(d.value)
			settle(next, v, err)
		case Rejected:
			if onRejected == nil {
				_ = next.Reject(d.err)
				return
			}
			v, err := onRejected(d.err)
			settle(next, v, err)
		}
	})
	return next
}

// ThenDeferred chains d into a value that adopts the outcome of the Deferred
// returned by whichever handler fires, so asynchronous steps compose in
// sequence. Nil handlers pass the value or rejection through like Then. A
// handler returning nil rejects the chained value with ErrNilDeferred.
func ThenDeferred[T, U any](d *Deferred[T], onFulfilled func(T) *Deferred[U], onRejected func(error) *Deferred[U]) *Deferred[U] {
	next := New[U]()
	next.TrackWith(d.tracker)
	d.handled = true

	d.subscribe(func() {
		var inner *Deferred[U]
		switch d.state {
		case Fulfilled:
			if onFulfilled == nil {
				passValue(next, d.value)
				return
			}
			inner = onFulfilled(d.value)
		case Rejected:
			if onRejected == nil {
				_ = next.Reject(d.err)
				return
			}
			inner = onRejected(d.err)
		}
		adopt(next, inner)
	})
	return next
}

// adopt settles next with inner's outcome. Inner is marked handled because
// next carries its rejection forward.
func adopt[U any](next, inner *Deferred[U]) {
	if inner == nil {
		_ = next.Reject(ErrNilDeferred)
		return
	}
	inner.OnSettle(func(v U) {
		_ = next.Resolve(v)
	}, func(err error) {
		_ = next.Reject(err)
	})
}

func passValue[T, U any](next *Deferred[U], v T) {
	if any(v) == nil {
		var zero U
		_ = next.Resolve(zero)
		return
	}
	u, ok := any(v).(U)
	if !ok {
		_ = next.Reject(fmt.Errorf("%w: %T", ErrPassThrough, v))
		return
	}
	_ = next.Resolve(u)
}

// Map chains a non-failing transformation of the fulfilled value.
func Map[T, U any](d *Deferred[T], f func(T) U) *Deferred[U] {
	return Then(d, func(v T) (U, error) { return f(v), nil }, nil)
}

// Catch chains a rejection handler. Fulfilled values pass through.
func Catch[T any](d *Deferred[T], onRejected func(error) (T, error)) *Deferred[T] {
	return Then(d, nil, onRejected)
}

// All fulfils with every value in argument order once all inputs fulfil, or
// rejects with the first rejection observed.
func All[T any](ds ...*Deferred[T]) *Deferred[[]T] {
	out := New[[]T]()
	if len(ds) > 0 {
		out.TrackWith(ds[0].tracker)
	}

	values := make([]T, len(ds))
	remaining := len(ds)
	if remaining == 0 {
		_ = out.Resolve(values)
		return out
	}

	for i, d := range ds {
		d.OnSettle(func(v T) {
			if out.state != Pending {
				return
			}
			values[i] = v
			remaining--
			if remaining == 0 {
				_ = out.Resolve(values)
			}
		}, func(err error) {
			if out.state == Pending {
				_ = out.Reject(err)
			}
		})
	}
	return out
}

func settle[U any](d *Deferred[U], v U, err error) {
	if err != nil {
		_ = d.Reject(err)
		return
	}
	_ = d.Resolve(v)
}
