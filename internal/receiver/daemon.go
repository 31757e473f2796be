// Daemon for continuous reception of DDP datagrams into a shared pixel buffer, and delivery of that buffer to local consumers
package receiver

import (
	"context"
	"ddpsink/internal/atomics"
	"ddpsink/internal/ebpf"
	"ddpsink/internal/externalio/beats"
	"ddpsink/internal/externalio/server"
	"ddpsink/internal/framebuffer"
	"ddpsink/internal/global"
	"ddpsink/internal/lifecycle"
	"ddpsink/internal/logctx"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/listener"
	"ddpsink/internal/receiver/metrics"
	"ddpsink/internal/receiver/shared"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Create new receiver daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		InstanceID: uuid.New(),
	}
	return
}

// Starts receive and consumer workers in background - gracefully shuts down if startup error is encountered
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	// Top level tag for daemon logs
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSRecv)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting instance %s...\n", daemon.InstanceID)

	daemon.cfg.setDefaults()
	daemon.startTime = time.Now()
	namespace := []string{global.NSRecv}

	// Socket draining selector (optional, needs root and BTF)
	loaded, err := ebpf.LoadProgram(daemon.cfg.DrainProgramPath)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Socket draining unavailable: %v\n", err)
		err = nil
	}
	if loaded && daemon.cfg.DrainMapPath == "" {
		daemon.cfg.DrainMapPath = ebpf.KernelDrainMapPath
	}

	daemon.buffer = framebuffer.New(daemon.cfg.MaxPixels)
	logctx.LogEvent(daemon.ctx, global.VerbosityProgress, global.InfoLog,
		"Pixel buffer limited to %d pixels\n", daemon.buffer.MaxPixels())

	// Commit export
	if daemon.cfg.BeatsEndpoint != "" {
		daemon.commits, err = mpmc.New[shared.CommitEvent](namespace, uint64(daemon.cfg.CommitQueueSize))
		if err != nil {
			err = fmt.Errorf("failed creating commit queue: %w", err)
			return
		}

		daemon.Beats, err = beats.NewOutput(namespace, daemon.cfg.BeatsEndpoint, daemon.InstanceID.String())
		if err != nil {
			// Output redials on the next commit
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"Beats server unreachable at startup: %v\n", err)
			err = nil
		}

		workerCtx := daemon.ctx
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			daemon.Beats.Run(workerCtx, daemon.commits)
		}()
	}

	// Listener
	daemon.Listener = listener.New(namespace, listener.Config{
		Address:      daemon.cfg.ListenIP,
		Port:         daemon.cfg.ListenPort,
		DedupEnabled: daemon.cfg.SuppressDuplicates,
		DrainMapPath: daemon.cfg.DrainMapPath,
	}, daemon.buffer, daemon.commits)
	err = daemon.Listener.Start(daemon.ctx)
	if err != nil {
		err = fmt.Errorf("failed starting listener: %w", err)
		daemon.Shutdown()
		return
	}

	if daemon.cfg.ServerEnabled {
		daemon.Stream = server.NewStreamHub(namespace, daemon.buffer, daemon.cfg.StreamInterval)
	}

	// Metrics Collector (built before the server so query handlers always have a registry)
	sources := []metrics.Collector{daemon.Listener, daemon.Listener.Assembler()}
	if daemon.commits != nil {
		sources = append(sources, daemon.commits, daemon.Beats)
	}
	if daemon.Stream != nil {
		sources = append(sources, daemon.Stream)
	}
	daemon.metricsCollector = metrics.New(daemon.cfg.MetricCollectionInterval, daemon.cfg.MetricMaxAge, sources...)
	daemon.metricsCollector.WatchLoad(daemon.Listener.Namespace)

	// Consumer surface
	if daemon.cfg.ServerEnabled {
		err = daemon.startServer()
		if err != nil {
			daemon.Shutdown()
			return
		}
	}

	workerCtx := daemon.ctx
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		daemon.metricsCollector.Run(workerCtx)
	}()

	err = lifecycle.NotifyReady(daemon.ctx)
	if err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog, "Systemd notify ready failed: %v\n", err)
		err = nil
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Startup complete.\n")
	return
}

// Binds and serves the consumer HTTP surface
func (daemon *Daemon) startServer() (err error) {
	// Top level tag for server logs (copy so return doesn't strip ns tags)
	serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetricSrv)

	registry := daemon.metricsCollector.Registry
	sources := server.Sources{
		Buffer:    daemon.buffer,
		Search:    registry.Search,
		Discover:  registry.Discover,
		Aggregate: registry.Aggregate,
	}

	daemon.HTTPServer, err = server.SetupListener(serverCtx, daemon.cfg.ServerAddress, daemon.cfg.ServerPort, sources, daemon.Stream)
	if err != nil {
		err = fmt.Errorf("failed setting up consumer server: %w", err)
		return
	}

	httpListener, err := server.Listen(daemon.HTTPServer)
	if err != nil {
		err = fmt.Errorf("failed binding consumer server: %w", err)
		return
	}

	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		server.Start(serverCtx, daemon.HTTPServer, httpListener)
	}()
	return
}

// Blocking daemon waiter
func (daemon *Daemon) Run() {
	<-daemon.ctx.Done()
}

// Shared pixel buffer (by reference, read through its snapshot methods)
func (daemon *Daemon) Buffer() *framebuffer.Buffer {
	return daemon.buffer
}

// Bound UDP address of the listener, nil before start
func (daemon *Daemon) ListenAddr() (addr *net.UDPAddr) {
	if daemon.Listener == nil {
		return
	}
	addr = daemon.Listener.LocalAddr()
	return
}

// One line summary for service managers
func (daemon *Daemon) Status() (status string) {
	if daemon.buffer == nil {
		status = "not started"
		return
	}
	status = fmt.Sprintf("%d pixels, version %d, up %s",
		daemon.buffer.Len(), daemon.buffer.Version(), time.Since(daemon.startTime).Round(time.Second))
	if daemon.Stream != nil {
		status += fmt.Sprintf(", %d stream subscribers", daemon.Stream.Subscribers())
	}
	return
}

// Gracefully shutdown worker threads (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	daemon.shutdownOnce.Do(daemon.shutdown)
}

func (daemon *Daemon) shutdown() {
	ctx := daemon.ctx

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop consumer server
	if daemon.Stream != nil {
		if !daemon.Stream.Close(global.SocketDrainTimeout) {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"stream subscribers did not disconnect in time\n")
		}
	}
	if daemon.HTTPServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, global.SocketDrainTimeout)
		err := daemon.HTTPServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"consumer HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Stop listener
	if daemon.Listener != nil {
		daemon.Listener.Stop(ctx)
	}

	// Let the exporter catch up on queued commits
	if daemon.commits != nil {
		success, last := atomics.WaitUntilZero(&daemon.commits.Metrics.Depth, global.SocketDrainTimeout)
		if !success {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"commit queue did not empty in time: dropped %d events\n", last)
		}
	}

	// Stop the run loop after instances are drained and stopped
	daemon.cancel()

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.ReceiveShutdownTimeout):
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: receive daemon did not shutdown within %v seconds\n",
			global.ReceiveShutdownTimeout.Seconds())
		return
	}

	if daemon.Beats != nil {
		err := daemon.Beats.Shutdown()
		if err != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "%v\n", err)
		}
	}

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed successfully\n")
}
