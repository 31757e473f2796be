package server

import (
	"context"
	"ddpsink/internal/atomics"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/metrics"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 2 * time.Second

// Creates stream hub polling the buffer's committed version at the given interval
func NewStreamHub(namespace []string, buffer BufferReader, interval time.Duration) (hub *StreamHub) {
	if interval <= 0 {
		interval = global.DefaultStreamInterval
	}
	hub = &StreamHub{
		buffer:      buffer,
		interval:    interval,
		subscribers: make(map[uuid.UUID]*websocket.Conn),
		done:        make(chan struct{}),
		Namespace:   append(append([]string{}, namespace...), global.NSStream),
		Metrics:     &StreamMetrics{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// Consumers are local tooling, not browsers from arbitrary origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	return
}

// Number of connected subscribers
func (hub *StreamHub) Subscribers() (count uint64) {
	count = hub.active.Load()
	return
}

func (hub *StreamHub) handleStream(ctx context.Context, serverResponder http.ResponseWriter, clientRequest *http.Request) {
	select {
	case <-hub.done:
		serverResponder.WriteHeader(http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := hub.upgrader.Upgrade(serverResponder, clientRequest, nil)
	if err != nil {
		// Upgrader already replied with an error status
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "websocket upgrade from %s failed: %v\n", clientRequest.RemoteAddr, err)
		return
	}

	id := uuid.New()
	ctx = logctx.AppendCtxTag(ctx, global.NSStream)
	ctx = logctx.AppendCtxTag(ctx, id.String())

	hub.mu.Lock()
	hub.subscribers[id] = conn
	hub.mu.Unlock()
	hub.active.Add(1)
	hub.Metrics.Connections.Add(1)

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "stream subscriber connected from %s\n", clientRequest.RemoteAddr)

	defer func() {
		hub.mu.Lock()
		delete(hub.subscribers, id)
		hub.mu.Unlock()
		conn.Close()
		hub.active.Add(^uint64(0))
		logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "stream subscriber disconnected\n")
	}()

	hub.serve(ctx, conn)
}

// Sends the last committed frame on connect and every newly committed frame after,
// until the client goes away or the hub closes
func (hub *StreamHub) serve(ctx context.Context, conn *websocket.Conn) {
	// Reader detects client close; incoming messages are discarded
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "stream read error: %v\n", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(hub.interval)
	defer ticker.Stop()

	var lastCommit uint64
	sent := false
	for {
		if !sent || hub.buffer.CommittedVersion() != lastCommit {
			raw, commitVersion := hub.buffer.CommittedRGB()

			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			err := conn.WriteMessage(websocket.BinaryMessage, raw)
			if err != nil {
				hub.Metrics.SendErrors.Add(1)
				logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog, "stream write failed: %v\n", err)
				return
			}
			hub.Metrics.FramesSent.Add(1)
			hub.Metrics.BytesSent.Add(uint64(len(raw)))

			lastCommit = commitVersion
			sent = true
		}

		select {
		case <-ctx.Done():
			return
		case <-hub.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteTimeout))
			return
		case <-clientGone:
			return
		case <-ticker.C:
		}
	}
}

// Disconnects all subscribers and waits for their handlers to exit
func (hub *StreamHub) Close(timeout time.Duration) (allClosed bool) {
	hub.closeOnce.Do(func() {
		close(hub.done)
	})

	allClosed, _ = atomics.WaitUntilZero(&hub.active, timeout)
	if allClosed {
		return
	}

	// Handlers still blocked in a write, force the sockets closed
	hub.mu.Lock()
	for _, conn := range hub.subscribers {
		conn.Close()
	}
	hub.mu.Unlock()
	return
}

func (hub *StreamHub) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	frames := hub.Metrics.FramesSent.Swap(0)
	bytesSent := hub.Metrics.BytesSent.Swap(0)
	sendErrors := hub.Metrics.SendErrors.Swap(0)
	connections := hub.Metrics.Connections.Swap(0)
	subscribers := hub.active.Load()

	recordTime := time.Now()

	metric := func(name, description, unit string, value uint64, metricType metrics.MetricType) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   hub.Namespace,
			Value: metrics.MetricValue{
				Raw:      value,
				Unit:     unit,
				Interval: interval,
			},
			Type:      metricType,
			Timestamp: recordTime,
		}
	}

	collection = []metrics.Metric{
		metric("frames_sent", "Buffer frames sent to stream subscribers", "count", frames, metrics.Counter),
		metric("bytes_sent", "Pixel bytes sent to stream subscribers", "bytes", bytesSent, metrics.Counter),
		metric("send_errors", "Failed writes to stream subscribers", "count", sendErrors, metrics.Counter),
		metric("connections", "Stream subscribers accepted", "count", connections, metrics.Counter),
		metric("subscribers", "Currently connected stream subscribers", "count", subscribers, metrics.Gauge),
	}
	return
}
