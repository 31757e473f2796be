package server

import (
	"context"
	"ddpsink/internal/metrics"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type httpLogWriter struct {
	ctx context.Context
}

type Jerror struct {
	Msg string `json:"error"`
}

// Read side of the pixel buffer
type BufferReader interface {
	SnapshotRGB() (raw []byte, version uint64)
	Version() uint64
	CommittedRGB() (raw []byte, commitVersion uint64)
	CommittedVersion() uint64
}

type DataSearcher func(name string, namespacePrefix []string, start, end time.Time) []metrics.Metric
type Discoverer func(name, description string, namespacePrefix []string, unit string, metricType metrics.MetricType) []metrics.Metric
type AggSearcher func(aggType, name string, namespacePrefix []string, start, end time.Time) (metrics.Metric, error)

// Everything the HTTP surface serves
type Sources struct {
	Buffer    BufferReader
	Search    DataSearcher
	Discover  Discoverer
	Aggregate AggSearcher
}

type JSnapshot struct {
	Version uint64     `json:"version"`
	Length  int        `json:"length"`
	Pixels  [][3]uint8 `json:"pixels"`
}

// Pushes buffer changes to websocket subscribers
type StreamHub struct {
	buffer      BufferReader
	interval    time.Duration
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[uuid.UUID]*websocket.Conn
	active      atomic.Uint64
	done        chan struct{}
	closeOnce   sync.Once
	Namespace   []string
	Metrics     *StreamMetrics
}

type StreamMetrics struct {
	FramesSent  atomic.Uint64
	BytesSent   atomic.Uint64
	SendErrors  atomic.Uint64
	Connections atomic.Uint64 // accepted in the interval
}
