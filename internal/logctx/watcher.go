package logctx

import (
	"ddpsink/internal/global"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	dedupWindow      time.Duration = 5 * time.Second // repeats older than this start a new run
	minRepeats       int           = 10
	suppressCooldown time.Duration = time.Minute
)

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wake broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Blocks for the oldest queued event. ok is false once Done is closed and the queue is drained.
func (logger *Logger) next() (event Event, ok bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	for len(logger.queue) == 0 {
		select {
		case <-logger.Done:
			return
		default:
			logger.cond.Wait()
		}
	}

	event = logger.queue[0]
	logger.queue = logger.queue[1:]
	ok = true
	return
}

// Tracks a run of identical messages (a misbehaving sender flooding the socket logs the
// same rejection over and over). Returns whether event should be written and, once per
// cooldown, how many repeats were swallowed.
func (state *dedupState) observe(event Event, now time.Time) (write bool, suppressed int) {
	repeat := event.Message != "" && event.Message == state.lastMsg && now.Sub(event.Timestamp) <= dedupWindow
	if !repeat {
		state.lastMsg = event.Message
		state.repeatCount = 1
		write = true
		return
	}

	state.repeatCount++
	if state.repeatCount >= minRepeats && now.Sub(state.lastSuppressTime) >= suppressCooldown {
		suppressed = state.repeatCount
		state.lastSuppressTime = now
		state.repeatCount = 0
	}
	return
}

// Starts a go routine that reads events and writes formatted output to io.Writer.
// Stops when logger.Done is closed and the queue is empty.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.wg.Add(1)
	go func() {
		defer logger.wg.Done()

		var dedup dedupState
		for {
			event, ok := logger.next()
			if !ok {
				return
			}

			write, suppressed := dedup.observe(event, time.Now())
			if suppressed > 0 {
				fmt.Fprintf(output, "[%s] [%s] [%s] Suppressed %d repeated messages: %s",
					padTimestamp(event.Timestamp), strings.Join(event.Tags, "/"), global.InfoLog, suppressed, event.Message)
			}
			if write {
				fmt.Fprint(output, event.Format())
			}
		}
	}()
}
