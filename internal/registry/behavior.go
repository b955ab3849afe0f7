package registry

import (
	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/vclock"
)

// Behavior produces the outcome of a single invocation of a fake
// dependency.
type Behavior func(call Call) *deferred.Deferred[any]

// Returns resolves every call with v.
func Returns(v any) Behavior {
	return func(Call) *deferred.Deferred[any] {
		return deferred.Resolved(v)
	}
}

// Fails rejects every call with err.
func Fails(err error) Behavior {
	return func(Call) *deferred.Deferred[any] {
		return deferred.Failed[any](err)
	}
}

// Func computes the outcome from the call arguments.
func Func(f func(args []any) (any, error)) Behavior {
	return func(call Call) *deferred.Deferred[any] {
		v, err := f(call.Args)
		if err != nil {
			return deferred.Failed[any](err)
		}
		return deferred.Resolved(v)
	}
}

// Delayed returns a pending value that settles with inner's outcome once the
// clock has advanced by ticks.
func Delayed(clock *vclock.Clock, ticks int64, inner Behavior) Behavior {
	return func(call Call) *deferred.Deferred[any] {
		out := deferred.New[any]()
		_, err := clock.Schedule(ticks, func() {
			inner(call).OnSettle(func(v any) {
				_ = out.Resolve(v)
			}, func(err error) {
				_ = out.Reject(err)
			})
		})
		if err != nil {
			_ = out.Reject(err)
		}
		return out
	}
}

// Sequence applies behaviors by call index. Calls past the end reuse the
// last behavior.
func Sequence(behaviors ...Behavior) Behavior {
	return func(call Call) *deferred.Deferred[any] {
		if len(behaviors) == 0 {
			return deferred.Resolved[any](nil)
		}
		i := call.Index
		if i >= len(behaviors) {
			i = len(behaviors) - 1
		}
		return behaviors[i](call)
	}
}
