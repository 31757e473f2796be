package beats

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/shared"
	"fmt"
)

// Exports commit events from the queue until ctx is done
func (mod *OutModule) Run(ctx context.Context, commits *mpmc.Queue[shared.CommitEvent]) {
	ctx = logctx.AppendCtxTag(ctx, global.NSoBeats)

	handle := func(event shared.CommitEvent) {
		defer func() {
			if fatalError := recover(); fatalError != nil {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
					"panic in beats exporter: %v\n", fatalError)
			}
		}()

		_, err := mod.Write(ctx, event)
		if err != nil {
			mod.Metrics.SendErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "%v\n", err)
		}
	}

	for {
		event, ok := commits.Pop(ctx)
		if !ok {
			return
		}
		handle(event)
	}
}

// Gracefully stops module
func (mod *OutModule) Shutdown() (err error) {
	if mod == nil {
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if mod.sink != nil {
		err = mod.sink.Close()
		mod.sink = nil
		if err != nil {
			err = fmt.Errorf("failed closing beats connection: %w", err)
		}
	}
	return
}
