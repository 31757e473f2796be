// Reads DDP datagrams from the network and applies them to the shared pixel buffer
package listener

import (
	"bytes"
	"context"
	"ddpsink/internal/atomics"
	"ddpsink/internal/framebuffer"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/assembler"
	"ddpsink/internal/receiver/shared"
	"ddpsink/pkg/protocol"
	"errors"
	"net"
	"runtime/debug"
	"time"
)

// Remotes remembered for duplicate detection before the table is cleared
const maxRecentRemotes int = 1024

func New(namespace []string, cfg Config, buffer *framebuffer.Buffer, commits *mpmc.Queue[shared.CommitEvent]) (new *Instance) {
	namespace = append(append([]string{}, namespace...), global.NSListen)
	new = &Instance{
		Namespace: namespace,
		cfg:       cfg,
		buffer:    buffer,
		assembler: assembler.New(namespace),
		commits:   commits,
		recent:    make(map[string]recentDatagram),
		Metrics:   &MetricStorage{},
	}
	return
}

// Assembler used for every datagram
func (instance *Instance) Assembler() *assembler.Instance {
	return instance.assembler
}

// Bound local address, nil before Start
func (instance *Instance) LocalAddr() (addr *net.UDPAddr) {
	if instance.conn == nil {
		return
	}
	addr = instance.conn.LocalAddr().(*net.UDPAddr)
	return
}

// Receive loop. Returns when ctx is cancelled or the socket is closed.
func (instance *Instance) Run(ctx context.Context, conn *net.UDPConn) {
	readBuffer := make([]byte, global.MaxDatagramSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		exit := func() (stop bool) {
			defer func() {
				// Record panics and continue listening
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "panic in listener worker thread: %v\n%s", fatalError, stack)
				}
			}()

			// Blocking until data or connection is closed
			endIndex, remoteAddr, err := conn.ReadFromUDP(readBuffer)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					stop = true
					return
				}
				logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed reading data from socket: %v\n", err)
				return
			}

			instance.inFlight.Add(1)
			defer instance.inFlight.Add(^uint64(0))

			instance.Handle(ctx, readBuffer[:endIndex], remoteAddr)
			return
		}()
		if exit {
			return
		}
	}
}

// Decodes one datagram and applies it to the buffer. Errors are logged and counted, never returned.
func (instance *Instance) Handle(ctx context.Context, datagram []byte, remoteAddr *net.UDPAddr) {
	start := time.Now()
	defer func() {
		durNs := uint64(time.Since(start).Nanoseconds())
		instance.Metrics.BusyNs.Add(durNs)
		instance.Metrics.SumNs.Add(durNs)
		atomics.StoreMax(&instance.Metrics.MaxNs, durNs)
	}()

	instance.Metrics.Datagrams.Add(1)
	instance.Metrics.Bytes.Add(uint64(len(datagram)))

	remote := "unknown"
	if remoteAddr != nil {
		remote = remoteAddr.String()
	}

	packet, err := protocol.DecodePacket(datagram)
	if err != nil {
		instance.Metrics.DecodeErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Dropped datagram from %s: %v\n", remote, err)
		return
	}

	if instance.cfg.DedupEnabled && instance.isRepeat(remote, packet.Sequence, datagram) {
		instance.Metrics.Duplicates.Add(1)
		logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "Skipped repeated datagram from %s (sequence %d)\n", remote, packet.Sequence)
		return
	}

	result, err := instance.assembler.Apply(packet, instance.buffer)
	if err != nil {
		if errors.Is(err, assembler.ErrUnsupportedOperation) {
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Ignored datagram from %s: %v\n", remote, err)
			return
		}
		instance.Metrics.ApplyErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "Rejected datagram from %s (%s): %v\n", remote, packet.Summary(), err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog, "Applied datagram from %s: %s\n", remote, packet.Summary())

	if packet.Flags.Push {
		instance.buffer.Commit()
		instance.Metrics.Pushes.Add(1)
		instance.publishCommit(ctx, packet, result, remoteAddr)
	}
}

// Same non-zero sequence and identical bytes as the previous datagram from the same remote
func (instance *Instance) isRepeat(remote string, sequence uint8, datagram []byte) (repeat bool) {
	previous, seen := instance.recent[remote]
	if sequence != 0 && seen && previous.sequence == sequence && bytes.Equal(previous.raw, datagram) {
		repeat = true
		return
	}

	if !seen && len(instance.recent) >= maxRecentRemotes {
		clear(instance.recent)
	}
	instance.recent[remote] = recentDatagram{
		sequence: sequence,
		raw:      append(previous.raw[:0], datagram...),
	}
	return
}

func (instance *Instance) publishCommit(ctx context.Context, packet protocol.Packet, result assembler.Result, remoteAddr *net.UDPAddr) {
	if instance.commits == nil {
		return
	}

	event := shared.CommitEvent{
		Timestamp:  time.Now(),
		Target:     packet.Target,
		Sequence:   packet.Sequence,
		Offset:     packet.Offset,
		Size:       packet.Size,
		Timecode:   packet.Timecode,
		HasTC:      packet.Flags.Timecode,
		StartIndex: result.StartIndex,
		Pixels:     result.Count,
		BufferLen:  instance.buffer.Len(),
		Version:    instance.buffer.Version(),
	}
	if remoteAddr != nil {
		event.RemoteIP = remoteAddr.IP.String()
	}

	if !instance.commits.Push(event) {
		instance.Metrics.CommitsDropped.Add(1)
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "Commit queue full, dropped commit event for version %d\n", event.Version)
	}
}
