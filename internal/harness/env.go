package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/registry"
	"github.com/gourl/asyncharness/internal/snapshot"
	"github.com/gourl/asyncharness/internal/vclock"
	"github.com/gourl/asyncharness/pkg/logger"
)

// Test is a named unit run by a Runner. Run returns nil to pass.
type Test struct {
	Name string
	Run  func(env *Env) error
}

// Env is the per-test environment: a fresh clock, registry and recorder,
// and snapshot matching scoped to the test's name.
type Env struct {
	Name     string
	Clock    *vclock.Clock
	Deps     *registry.Registry
	Recorder *Recorder
	Logger   *logger.Logger

	ctx       context.Context
	matcher   *snapshot.Matcher
	snapshots int
	tracked   []deferred.Observable
}

func newEnv(ctx context.Context, name string, clock vclock.Config, matcher *snapshot.Matcher, log *logger.Logger) *Env {
	e := &Env{
		Name:     name,
		Recorder: NewRecorder(),
		ctx:      ctx,
		matcher:  matcher,
	}
	e.Clock = vclock.New(clock, log)
	e.Logger = log.WithTimeSource(e.Clock.Time)
	e.Deps = registry.New(e, log)
	return e
}

// Context returns the run's context.
func (e *Env) Context() context.Context {
	return e.ctx
}

// Track implements deferred.Tracker. Every tracked value is checked for an
// unhandled rejection when the test ends.
func (e *Env) Track(o deferred.Observable) {
	e.tracked = append(e.tracked, o)
}

// Watch attaches the test's rejection tracking to d and returns it.
func Watch[T any](e *Env, d *deferred.Deferred[T]) *deferred.Deferred[T] {
	return d.TrackWith(e)
}

// MatchSnapshot compares actual against the test's next snapshot. The n-th
// call in a test uses the identity "<test name> <n>".
func (e *Env) MatchSnapshot(actual any, tmpl snapshot.Template) error {
	e.snapshots++
	return e.MatchNamedSnapshot(fmt.Sprintf("%s %d", e.Name, e.snapshots), actual, tmpl)
}

// MatchNamedSnapshot compares actual against the snapshot stored under
// identity.
func (e *Env) MatchNamedSnapshot(identity string, actual any, tmpl snapshot.Template) error {
	return e.matcher.Match(e.ctx, identity, actual, tmpl)
}

// unhandled returns an error for every tracked value that was rejected and
// never handled.
func (e *Env) unhandled() error {
	var errs []error
	for _, o := range e.tracked {
		if o.State() == deferred.Rejected && !o.Handled() {
			errs = append(errs, fmt.Errorf("%w: %w", ErrUnhandledRejection, o.Reason()))
		}
	}
	return errors.Join(errs...)
}

// finish collects everything that fails a test after Run returned.
func (e *Env) finish() error {
	errs := []error{e.Recorder.Verify()}
	if names := e.Deps.Unconfigured(); len(names) > 0 {
		errs = append(errs, fmt.Errorf("%w: %q", registry.ErrUnconfiguredDependency, names))
	}
	errs = append(errs, e.unhandled())
	return errors.Join(errs...)
}
