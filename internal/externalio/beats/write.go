package beats

import (
	"context"
	"ddpsink/internal/atomics"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/receiver/shared"
	"fmt"
	"os"
	"time"
)

// Builds the beats document for a commit event
func (mod *OutModule) document(event shared.CommitEvent) (fields map[string]interface{}) {
	hostname, _ := os.Hostname()

	ddp := map[string]interface{}{
		"target":      event.Target.String(),
		"target_id":   uint8(event.Target),
		"sequence":    event.Sequence,
		"offset":      event.Offset,
		"size":        event.Size,
		"start_index": event.StartIndex,
		"pixels":      event.Pixels,
	}
	if event.HasTC {
		ddp["timecode"] = event.Timecode
	}

	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": event.Timestamp,
		"message": fmt.Sprintf("frame commit from %s: %d pixels at index %d (buffer %d pixels, version %d)",
			event.RemoteIP, event.Pixels, event.StartIndex, event.BufferLen, event.Version),

		"source": map[string]interface{}{
			"ip": event.RemoteIP,
		},
		"agent": map[string]interface{}{
			"id":       mod.instanceID,
			"hostname": hostname,
			"program":  global.ProgBaseName,
			"version":  global.ProgVersion,
			"pid":      os.Getpid(),
		},
		"ddp": ddp,
		"buffer": map[string]interface{}{
			"length":  event.BufferLen,
			"version": event.Version,
		},
	}
	return
}

// Sends commit event to configured beats server, reconnecting once if the last send broke the connection
func (mod *OutModule) Write(ctx context.Context, event shared.CommitEvent) (eventsSent int, err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.sink == nil {
		sinceLast := time.Since(time.Unix(0, mod.Metrics.LastSendTime.Load()))
		if sinceLast < redialInterval {
			err = fmt.Errorf("beats server %s unavailable, retrying in %s", mod.endpoint, (redialInterval - sinceLast).Round(time.Second))
			return
		}

		mod.Metrics.Reconnects.Add(1)
		mod.sink, err = mod.dial(mod.endpoint)
		if err != nil {
			mod.sink = nil
			mod.Metrics.LastSendTime.Store(time.Now().UnixNano())
			return
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Reconnected to beats server %s\n", mod.endpoint)
	}

	events := []interface{}{mod.document(event)}

	start := time.Now()
	eventsSent, err = mod.sink.Send(events)
	elapsed := uint64(time.Since(start).Nanoseconds())
	mod.Metrics.LastSendTime.Store(time.Now().UnixNano())

	mod.Metrics.SumNs.Add(elapsed)
	atomics.StoreMax(&mod.Metrics.MaxNs, elapsed)

	if err != nil {
		// Connection state unknown after a failed window, start over on next event
		mod.sink.Close()
		mod.sink = nil
		err = fmt.Errorf("failed sending to beats server: %w", err)
		return
	}
	mod.Metrics.EventsSent.Add(uint64(eventsSent))
	return
}
