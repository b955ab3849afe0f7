// Package harness runs deterministic tests of asynchronous code. Each test
// gets its own virtual clock, dependency registry and assertion recorder,
// and reports exactly one of Pass, Fail or Error.
package harness

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gourl/asyncharness/internal/metrics"
	"github.com/gourl/asyncharness/internal/snapshot"
	"github.com/gourl/asyncharness/internal/vclock"
	"github.com/gourl/asyncharness/pkg/logger"
)

// Status is the outcome of a test.
type Status int

const (
	Pass Status = iota
	Fail
	Error
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one test.
type Result struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
	Timers   int // timers fired on the test's clock
}

// Report is the outcome of a run.
type Report struct {
	RunID   uuid.UUID
	Results []Result
}

// Count returns how many tests ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Passed returns the number of passing tests.
func (r Report) Passed() int {
	return r.Count(Pass)
}

// Failed returns the number of tests that did not pass.
func (r Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// OK reports whether every test passed.
func (r Report) OK() bool {
	return r.Failed() == 0
}

// Options configures a Runner.
type Options struct {
	Clock           vclock.Config
	UpdateSnapshots bool
	Filter          string // run only tests whose name contains Filter
}

// Runner runs tests one after another against a shared snapshot store.
type Runner struct {
	opts    Options
	matcher *snapshot.Matcher
	log     *logger.Logger
}

// NewRunner creates a Runner. A nil store keeps snapshots in memory for
// the lifetime of the Runner.
func NewRunner(store snapshot.Store, log *logger.Logger, opts Options) *Runner {
	return &Runner{
		opts:    opts,
		matcher: snapshot.NewMatcher(store, opts.UpdateSnapshots, log),
		log:     log.With("component", "harness"),
	}
}

// Run runs tests in order. Tests not selected by the filter are left out
// of the report. Once ctx is done the remaining tests are reported as
// Error without running.
func (r *Runner) Run(ctx context.Context, tests ...Test) Report {
	report := Report{RunID: uuid.New()}
	log := r.log.With("run_id", report.RunID.String())

	for _, t := range tests {
		if r.opts.Filter != "" && !strings.Contains(t.Name, r.opts.Filter) {
			continue
		}
		var res Result
		if err := ctx.Err(); err != nil {
			res = Result{Name: t.Name, Status: Error, Err: err}
		} else {
			res = r.runOne(ctx, t, log)
		}
		report.Results = append(report.Results, res)
	}

	log.Info("run finished",
		"tests", len(report.Results),
		"passed", report.Passed(),
		"failed", report.Count(Fail),
		"errored", report.Count(Error),
	)
	return report
}

func (r *Runner) runOne(ctx context.Context, t Test, log *logger.Logger) Result {
	log = log.With("test", t.Name)
	env := newEnv(ctx, t.Name, r.opts.Clock, r.matcher, log)

	start := time.Now()
	runErr := invoke(t, env)
	finishErr := env.finish()
	err := errors.Join(runErr, finishErr)
	res := Result{
		Name:     t.Name,
		Status:   classify(runErr, finishErr),
		Err:      err,
		Duration: time.Since(start),
		Timers:   env.Clock.Fired(),
	}

	metrics.RecordTest(res.Status.String(), res.Duration)
	if res.Status == Pass {
		log.Info("test passed", "duration", res.Duration)
	} else {
		log.Warn("test did not pass", "status", res.Status.String(), "error", err)
	}
	return res
}

func invoke(t Test, env *Env) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	if t.Run == nil {
		return nil
	}
	return t.Run(env)
}

// classify maps a test's errors to its status. Everything found after Run
// returned is a failure kind; an unexpected error from Run itself wins.
func classify(runErr, finishErr error) Status {
	switch {
	case runErr != nil && !IsFailure(runErr):
		return Error
	case runErr != nil || finishErr != nil:
		return Fail
	default:
		return Pass
	}
}
