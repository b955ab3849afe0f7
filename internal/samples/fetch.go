package samples

import (
	"errors"

	"github.com/gourl/asyncharness/internal/deferred"
	"github.com/gourl/asyncharness/internal/vclock"
)

// FetchDelay is how long FetchData takes to settle, in ticks.
const FetchDelay = 1000

// ErrFetch is the rejection reason of a failing FetchData.
var ErrFetch = errors.New("error")

// FetchData settles FetchDelay ticks from now with "peanut butter", or
// rejects with ErrFetch when shouldFail is set.
func FetchData(clock *vclock.Clock, shouldFail bool) *deferred.Deferred[string] {
	d := deferred.New[string]()
	_, err := clock.Schedule(FetchDelay, func() {
		if shouldFail {
			_ = d.Reject(ErrFetch)
			return
		}
		_ = d.Resolve("peanut butter")
	})
	if err != nil {
		return deferred.Failed[string](err)
	}
	return d
}
