package vclock

import (
	"errors"
	"fmt"
)

// Common errors for the virtual clock.
var (
	// ErrNegativeDelay is returned when a delay or advance is below zero.
	ErrNegativeDelay = errors.New("delay must not be negative")

	// ErrDelayOverflow is returned when a delay or advance would move past
	// the largest representable tick.
	ErrDelayOverflow = errors.New("delay overflows the clock")

	// ErrDivergentTimer is returned when firing timers keeps scheduling new
	// timers past the iteration cap.
	ErrDivergentTimer = errors.New("timers did not settle, assuming an infinite loop")
)

// DivergentTimerError carries the state of the clock when the iteration cap
// was hit.
type DivergentTimerError struct {
	Limit   int
	Pending int
	Now     int64
}

func (e *DivergentTimerError) Error() string {
	return fmt.Sprintf("aborting after running %d timers (%d still pending at tick %d): %v",
		e.Limit, e.Pending, e.Now, ErrDivergentTimer)
}

// Is makes errors.Is(err, ErrDivergentTimer) hold.
func (e *DivergentTimerError) Is(target error) bool {
	return target == ErrDivergentTimer
}
