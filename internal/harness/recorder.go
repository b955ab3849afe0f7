package harness

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"

	"github.com/gourl/asyncharness/internal/deferred"
)

// allFields lets Equal compare unexported struct fields.
var allFields = cmp.Exporter(func(reflect.Type) bool { return true })

// Recorder collects settled outcomes and assertion results for one test.
type Recorder struct {
	values   []any
	errs     []error
	expected int
	count    int
	failures []error
}

// NewRecorder creates an empty Recorder with no expected assertion count.
func NewRecorder() *Recorder {
	return &Recorder{expected: -1}
}

// Observe records the outcome of d once it settles and returns d. Observing
// a value handles its rejection.
func Observe[T any](r *Recorder, d *deferred.Deferred[T]) *deferred.Deferred[T] {
	d.OnSettle(
		func(v T) { r.values = append(r.values, v) },
		func(err error) { r.errs = append(r.errs, err) },
	)
	return d
}

// Values returns the fulfilled values observed so far, in settlement order.
func (r *Recorder) Values() []any {
	return append([]any(nil), r.values...)
}

// Errors returns the rejection errors observed so far, in settlement order.
func (r *Recorder) Errors() []error {
	return append([]error(nil), r.errs...)
}

// ExpectAssertions requires exactly n assertions to have run by the time
// the test ends.
func (r *Recorder) ExpectAssertions(n int) {
	r.expected = n
}

// Assertions returns how many assertions have run.
func (r *Recorder) Assertions() int {
	return r.count
}

// Assert records an assertion that cond holds.
func (r *Recorder) Assert(cond bool, format string, args ...any) bool {
	r.count++
	if !cond {
		r.fail(fmt.Sprintf(format, args...))
	}
	return cond
}

// Equal asserts that got equals want.
func (r *Recorder) Equal(want, got any) bool {
	r.count++
	if diff := cmp.Diff(want, got, allFields); diff != "" {
		r.fail(fmt.Sprintf("values differ (-want +got):\n%s", diff))
		return false
	}
	return true
}

// ErrorIs asserts that err matches target.
func (r *Recorder) ErrorIs(err, target error) bool {
	r.count++
	if !errors.Is(err, target) {
		r.fail(fmt.Sprintf("error %v does not match %v", err, target))
		return false
	}
	return true
}

// Failures returns the failed assertions.
func (r *Recorder) Failures() []error {
	return append([]error(nil), r.failures...)
}

// Verify returns every failed assertion, and a failure if the expected
// assertion count was not met.
func (r *Recorder) Verify() error {
	errs := append([]error(nil), r.failures...)
	if r.expected >= 0 && r.count != r.expected {
		errs = append(errs, fmt.Errorf("%w: expected %d assertions, got %d", ErrAssertion, r.expected, r.count))
	}
	return errors.Join(errs...)
}

func (r *Recorder) fail(msg string) {
	r.failures = append(r.failures, fmt.Errorf("%w: %s", ErrAssertion, msg))
}
