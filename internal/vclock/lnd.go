package vclock

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// Ensure lndClock implements clock.Clock
var _ clock.Clock = (*lndClock)(nil)

// lndClock exposes a virtual clock through lnd's clock.Clock interface.
type lndClock struct {
	c *Clock
}

// Wall returns a clock.Clock backed by c. Code written against that
// interface observes virtual time, and TickAfter channels receive a value
// only when the test advances past the deadline.
func (c *Clock) Wall() clock.Clock {
	return &lndClock{c: c}
}

// Now returns the virtual wall time.
func (l *lndClock) Now() time.Time {
	return l.c.Time()
}

// TickAfter returns a channel that receives the virtual time once d has
// elapsed on the clock. Durations are rounded up to whole ticks.
func (l *lndClock) TickAfter(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	ticks := int64(0)
	if d > 0 {
		tick := l.c.cfg.TickDuration
		ticks = int64((d + tick - 1) / tick)
	}

	// ticks is never negative here, so Schedule cannot fail.
	_, _ = l.c.Schedule(ticks, func() {
		ch <- l.c.Time()
	})
	return ch
}
