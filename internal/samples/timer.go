package samples

import (
	"github.com/gourl/asyncharness/internal/vclock"
	"github.com/gourl/asyncharness/pkg/logger"
)

// TimerGameDelay is how long TimerGame waits before calling back, in ticks.
const TimerGameDelay = 1000

// TimerGame calls cb once, TimerGameDelay ticks from now.
func TimerGame(clock *vclock.Clock, log *logger.Logger, cb func()) (vclock.TimerID, error) {
	log.Info("Ready....go!")
	return clock.Schedule(TimerGameDelay, func() {
		log.Info("Time's up -- stop!")
		if cb != nil {
			cb()
		}
	})
}
