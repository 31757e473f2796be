// Helper functions that deal with atomic variables and their values
package atomics

import (
	"sync/atomic"
	"time"
)

// Polls probe until it reports 0 three times in a row or the timeout passes
func WaitUntil(probe func() (uint64, error), timeout time.Duration) (reachedZero bool, lastValue uint64, err error) {
	const successfulStreakCount = 3

	backoff := 10 * time.Millisecond
	maxBackoff := 500 * time.Millisecond

	deadline := time.Now().Add(timeout)
	zeroStreak := 0

	for {
		lastValue, err = probe()
		if err != nil {
			return
		}

		if lastValue == 0 {
			zeroStreak++
			if zeroStreak >= successfulStreakCount {
				reachedZero = true
				return
			}
		} else {
			zeroStreak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}

		sleep := backoff
		if sleep > remaining {
			sleep = remaining
		}
		time.Sleep(sleep)

		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// Waits until atomic value is 0 three consecutive times in a row, with retries and timeout
func WaitUntilZero(value *atomic.Uint64, timeout time.Duration) (reachedZero bool, lastValue uint64) {
	reachedZero, lastValue, _ = WaitUntil(func() (uint64, error) {
		return value.Load(), nil
	}, timeout)
	return
}
