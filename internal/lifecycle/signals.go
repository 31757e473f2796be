package lifecycle

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"os"
	"os/signal"
	"syscall"
)

type DaemonLike interface {
	Shutdown()
	Status() string
}

// Handles incoming signals until one requests termination.
// SIGHUP only refreshes the service status line.
func SignalHandler(ctx context.Context, daemon DaemonLike) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-sigChan:
		}
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Received signal: %v\n", sig)

		if sig == syscall.SIGHUP {
			status := daemon.Status()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Status: %s\n", status)
			err := NotifyStatus(ctx, status)
			if err != nil {
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify status failed: %v\n", err)
			}
			continue
		}

		err := NotifyStopping(ctx)
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify stopping failed: %v\n", err)
		}

		daemon.Shutdown()
		return
	}
}
