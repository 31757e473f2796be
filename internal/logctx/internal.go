package logctx

import (
	"ddpsink/internal/global"
	"time"
)

// Queues event if it passes the level filter. Errors always pass.
func (logger *Logger) log(eventLevel int, eventSeverity string, tags []string, fullMessage string) {
	event := Event{
		Timestamp: time.Now(),
		Tags:      tags,
		Severity:  eventSeverity,
		Message:   fullMessage,
	}

	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if eventLevel > logger.PrintLevel && eventSeverity != global.ErrorLog {
		return
	}

	logger.queue = append(logger.queue, event)
	logger.cond.Signal()
}
