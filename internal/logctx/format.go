package logctx

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Stringify full event
func (event Event) Format() (text string) {
	var parts []string
	if !event.Timestamp.IsZero() {
		parts = append(parts, "["+padTimestamp(event.Timestamp)+"]")
	}
	if len(event.Tags) > 0 {
		parts = append(parts, "["+strings.Join(event.Tags, "/")+"]")
	}
	if event.Severity != "" {
		parts = append(parts, "["+event.Severity+"]")
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}

	// No newline, message creator determines newlines
	text = strings.Join(parts, " ")
	return
}

// Returns queued (not yet written) events as formatted lines, oldest first
func (logger *Logger) GetFormattedLogLines() (formatted []string) {
	logger.mutex.Lock()
	events := make([]Event, len(logger.queue))
	copy(events, logger.queue)
	logger.mutex.Unlock()

	// Zero timestamps sort last
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].Timestamp, events[j].Timestamp
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})

	formatted = make([]string, 0, len(events))
	for _, event := range events {
		line := event.Format()
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		formatted = append(formatted, line)
	}
	return
}

// Ensures fixed length strings for timestamps
func padTimestamp(timestamp time.Time) (formatted string) {
	formatted = timestamp.Format(time.RFC3339Nano)

	majorFields := strings.Split(formatted, ".")
	if len(majorFields) != 2 {
		return
	}

	// Zone is either "Z" or a signed offset
	fraction := majorFields[1]
	zoneIndex := strings.IndexAny(fraction, "Z+-")
	if zoneIndex < 0 {
		return
	}
	nanoseconds := fraction[:zoneIndex]
	zone := fraction[zoneIndex:]

	for len(nanoseconds) < 9 {
		nanoseconds += "0"
	}

	formatted = fmt.Sprintf("%s.%s%s", majorFields[0], nanoseconds, zone)
	return
}
