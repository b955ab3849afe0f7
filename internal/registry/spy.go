package registry

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// allFields lets argument comparisons look at unexported struct fields.
var allFields = cmp.Exporter(func(reflect.Type) bool { return true })

// Spy wraps a synchronous function and records each call's arguments and
// return value.
type Spy struct {
	impl    func(args ...any) any
	calls   [][]any
	results []any
}

// NewSpy creates a Spy around impl. A nil impl returns nil.
func NewSpy(impl func(args ...any) any) *Spy {
	return &Spy{impl: impl}
}

// Call invokes the wrapped function and records the call.
func (s *Spy) Call(args ...any) any {
	s.calls = append(s.calls, append([]any(nil), args...))

	var result any
	if s.impl != nil {
		result = s.impl(args...)
	}
	s.results = append(s.results, result)
	return result
}

// Fn returns the spy as a plain function value.
func (s *Spy) Fn() func(args ...any) any {
	return s.Call
}

// Callback returns the spy as a zero-argument callback, as taken by timers.
func (s *Spy) Callback() func() {
	return func() { s.Call() }
}

// CallCount returns the number of recorded calls.
func (s *Spy) CallCount() int {
	return len(s.calls)
}

// Called reports whether the spy was called at least once.
func (s *Spy) Called() bool {
	return len(s.calls) > 0
}

// Calls returns the arguments of every call in order.
func (s *Spy) Calls() [][]any {
	out := make([][]any, len(s.calls))
	for i, c := range s.calls {
		out[i] = append([]any(nil), c...)
	}
	return out
}

// Results returns the return value of every call in order.
func (s *Spy) Results() []any {
	return append([]any(nil), s.results...)
}

// CalledWith reports whether any call received exactly args.
func (s *Spy) CalledWith(args ...any) bool {
	for _, c := range s.calls {
		if cmp.Equal(c, args, allFields) {
			return true
		}
	}
	return false
}
