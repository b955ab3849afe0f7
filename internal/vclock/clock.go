// Package vclock provides a caller-driven virtual clock for deterministic
// tests of time-dependent code.
//
// Time is an integer tick counter that only moves when the test calls
// AdvanceBy, AdvanceToNext, RunOnlyPending or RunAll. Callbacks run
// synchronously on the caller's goroutine. A Clock is not safe for concurrent
// use.
package vclock

import (
	"container/heap"
	"math"
	"time"

	"github.com/gourl/asyncharness/internal/metrics"
	"github.com/gourl/asyncharness/pkg/logger"
)

// DefaultMaxIterations bounds RunAll and AdvanceBy.
const DefaultMaxIterations = 100000

// TimerID identifies a scheduled callback.
type TimerID int64

// Config holds configuration for a Clock.
type Config struct {
	MaxIterations int           // Fires allowed per advance before giving up
	Epoch         time.Time     // Wall time reported at tick zero
	TickDuration  time.Duration // Wall duration of one tick
}

// DefaultConfig returns the default configuration: millisecond ticks
// starting at the Unix epoch.
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Epoch:         time.Unix(0, 0).UTC(),
		TickDuration:  time.Millisecond,
	}
}

// Clock is a virtual clock holding pending timers.
type Clock struct {
	cfg Config
	log *logger.Logger

	now    int64
	nextID TimerID
	seq    uint64
	queue  timerQueue
	byID   map[TimerID]*entry
	fired  int
}

// New creates a Clock at tick zero. Zero-valued config fields fall back to
// DefaultConfig.
func New(cfg Config, log *logger.Logger) *Clock {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.TickDuration <= 0 {
		cfg.TickDuration = def.TickDuration
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = def.Epoch
	}

	c := &Clock{
		cfg:  cfg,
		byID: make(map[TimerID]*entry),
	}
	c.log = log.With("component", "vclock").WithTimeSource(c.Time)
	return c
}

// Now returns the current tick.
func (c *Clock) Now() int64 {
	return c.now
}

// Time returns the wall time corresponding to the current tick.
func (c *Clock) Time() time.Time {
	return c.cfg.Epoch.Add(time.Duration(c.now) * c.cfg.TickDuration)
}

// Pending returns the number of timers waiting to fire.
func (c *Clock) Pending() int {
	return c.queue.Len()
}

// Fired returns how many callbacks this clock has invoked.
func (c *Clock) Fired() int {
	return c.fired
}

// Schedule registers cb to run once the clock reaches now+delay. Nothing is
// invoked immediately, even for a zero delay.
func (c *Clock) Schedule(delay int64, cb func()) (TimerID, error) {
	if delay < 0 {
		return 0, ErrNegativeDelay
	}
	if delay > math.MaxInt64-c.now {
		return 0, ErrDelayOverflow
	}

	c.nextID++
	c.seq++
	e := &entry{
		id:    c.nextID,
		dueAt: c.now + delay,
		seq:   c.seq,
		cb:    cb,
	}
	heap.Push(&c.queue, e)
	c.byID[e.id] = e

	c.log.Debug("timer scheduled", "timer", int64(e.id), "due_at", e.dueAt)
	return e.id, nil
}

// Cancel removes a pending timer. Unknown or already fired ids are ignored.
func (c *Clock) Cancel(id TimerID) {
	e, ok := c.byID[id]
	if !ok {
		return
	}
	heap.Remove(&c.queue, e.index)
	delete(c.byID, id)

	c.log.Debug("timer cancelled", "timer", int64(id))
}

// AdvanceBy moves the clock forward by ticks, firing every timer that comes
// due on the way in (dueAt, insertion) order. Timers scheduled by callbacks
// fire within the same call when they fall due before the target.
func (c *Clock) AdvanceBy(ticks int64) error {
	if ticks < 0 {
		return ErrNegativeDelay
	}
	if ticks > math.MaxInt64-c.now {
		return ErrDelayOverflow
	}

	target := c.now + ticks
	for n := 0; ; n++ {
		next := c.queue.peek()
		if next == nil || next.dueAt > target {
			break
		}
		if n >= c.cfg.MaxIterations {
			return c.divergent()
		}
		c.fire(heap.Pop(&c.queue).(*entry))
	}
	c.now = target
	return nil
}

// AdvanceToNext moves the clock to the earliest pending timer and fires
// everything due at that tick. It is a no-op when nothing is pending.
func (c *Clock) AdvanceToNext() error {
	next := c.queue.peek()
	if next == nil {
		return nil
	}
	return c.AdvanceBy(next.dueAt - c.now)
}

// RunOnlyPending advances to the latest timer pending at call time. Timers
// scheduled along the way fire only if they fall due before that tick.
func (c *Clock) RunOnlyPending() error {
	if c.queue.Len() == 0 {
		return nil
	}

	last := c.now
	for _, e := range c.queue {
		if e.dueAt > last {
			last = e.dueAt
		}
	}
	return c.AdvanceBy(last - c.now)
}

// RunAll fires timers until none are pending, moving the clock to each
// timer's due tick. It fails with a *DivergentTimerError once more than
// MaxIterations callbacks have run.
func (c *Clock) RunAll() error {
	for n := 0; c.queue.Len() > 0; n++ {
		if n >= c.cfg.MaxIterations {
			return c.divergent()
		}
		c.fire(heap.Pop(&c.queue).(*entry))
	}
	return nil
}

// fire invokes a timer that has already been popped from the queue.
func (c *Clock) fire(e *entry) {
	delete(c.byID, e.id)
	if e.dueAt > c.now {
		c.now = e.dueAt
	}
	c.fired++
	metrics.RecordTimerFired()

	c.log.Debug("timer fired", "timer", int64(e.id), "tick", c.now)
	e.cb()
}

func (c *Clock) divergent() error {
	err := &DivergentTimerError{
		Limit:   c.cfg.MaxIterations,
		Pending: c.queue.Len(),
		Now:     c.now,
	}
	c.log.Warn("timer loop aborted", "error", err)
	return err
}
