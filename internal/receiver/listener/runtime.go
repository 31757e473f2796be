package listener

import (
	"context"
	"ddpsink/internal/atomics"
	"ddpsink/internal/ebpf"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/network"
	"fmt"
)

// Binds the socket and starts the receive loop in the background
func (instance *Instance) Start(ctx context.Context) (err error) {
	conn, err := network.ListenUDP(instance.cfg.Address, instance.cfg.Port)
	if err != nil {
		err = fmt.Errorf("failed to bind listener: %w", err)
		return
	}
	instance.conn = conn

	// Logger carries over, cancellation does not
	runCtx, cancel := context.WithCancel(context.Background())
	runCtx = logctx.WithLogger(runCtx, logctx.GetLogger(ctx))
	runCtx = logctx.OverwriteCtxTag(runCtx, instance.Namespace)
	instance.cancel = cancel

	instance.wg.Add(1)
	go func() {
		defer instance.wg.Done()
		instance.Run(runCtx, conn)
	}()

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Listening for DDP on %s\n", conn.LocalAddr())
	return
}

// Stops receiving. When a draining map is pinned the socket is first marked
// draining and its queue is given time to empty; the datagram being applied
// when the socket closes always finishes.
func (instance *Instance) Stop(ctx context.Context) {
	if instance.conn == nil {
		return
	}

	if instance.cfg.DrainMapPath != "" {
		instance.drain(ctx)
	}

	instance.cancel()
	err := instance.conn.Close() // Required to unblock the pending read
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Failed closing listener socket: %v\n", err)
	}

	reachedZero, last := atomics.WaitUntilZero(&instance.inFlight, global.SocketDrainTimeout)
	if !reachedZero {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Listener still applying %d datagrams at shutdown\n", last)
	}
	instance.wg.Wait()
}

func (instance *Instance) drain(ctx context.Context) {
	cookie, err := ebpf.GetSocketCookie(instance.conn)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed to get cookie for socket: %v\n", err)
		return
	}

	marked, err := ebpf.MarkSocketDraining(instance.cfg.DrainMapPath, cookie)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed to set socket as draining: %v\n", err)
		return
	}
	if !marked {
		return
	}

	drained, err := network.WaitUntilEmptySocket(instance.conn, global.SocketDrainTimeout)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed to check socket receive queue: %v\n", err)
		return
	}
	if !drained {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Socket closed with datagrams still queued\n")
	}
}
