package beats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Subset of the lumberjack client the module uses
type eventSink interface {
	Send(data []interface{}) (int, error)
	Close() error
}

type dialFunc func(endpoint string) (eventSink, error)

// Exports buffer commit events to a beats (lumberjack v2) server
type OutModule struct {
	Namespace  []string
	endpoint   string
	instanceID string
	dial       dialFunc
	mu         sync.Mutex
	sink       eventSink // nil while disconnected
	Metrics    *MetricStorage
}

type MetricStorage struct {
	EventsSent   atomic.Uint64
	SendErrors   atomic.Uint64
	Reconnects   atomic.Uint64
	SumNs        atomic.Uint64
	MaxNs        atomic.Uint64
	LastSendTime atomic.Int64 // unix nano
}

const (
	dialTimeout    = 3 * time.Second
	redialInterval = 5 * time.Second
)
