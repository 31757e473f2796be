package receiver

import (
	"context"
	"ddpsink/internal/externalio/beats"
	"ddpsink/internal/externalio/server"
	"ddpsink/internal/framebuffer"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/listener"
	"ddpsink/internal/receiver/metrics"
	"ddpsink/internal/receiver/shared"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type JSONConfig struct {
	Network struct {
		Address            string `json:"address"`
		Port               int    `json:"port"`
		SuppressDuplicates bool   `json:"suppressDuplicates,omitempty"`
	} `json:"network"`
	Buffer struct {
		MaxPixels int `json:"maxPixels,omitempty"`
	} `json:"buffer"`
	Draining struct {
		ProgramPath string `json:"bpfObject,omitempty"`
		MapPath     string `json:"pinnedMap,omitempty"`
	} `json:"draining"`
	Consumers struct {
		EnableServer   bool   `json:"enableHTTPServer"`
		Address        string `json:"address,omitempty"`
		Port           int    `json:"port,omitempty"`
		StreamInterval string `json:"streamInterval,omitempty"`
	} `json:"consumers"`
	Outputs struct {
		BeatsAddress    string `json:"beatsAddress,omitempty"`
		CommitQueueSize int    `json:"commitQueueSize,omitempty"`
	} `json:"outputs"`
	Metrics struct {
		Interval string `json:"collectionInterval"`
		MaxAge   string `json:"maximumRetention,omitempty"`
	} `json:"metrics"`
}

type Config struct {
	// Basic settings
	ListenIP           string
	ListenPort         int
	SuppressDuplicates bool

	// Pixel buffer growth limit (0 = derived from free memory)
	MaxPixels int

	// Socket draining on shutdown
	DrainProgramPath string
	DrainMapPath     string

	// Consumer HTTP surface
	ServerEnabled  bool
	ServerAddress  string
	ServerPort     int
	StreamInterval time.Duration

	// Outputs
	BeatsEndpoint   string
	CommitQueueSize int

	// Metrics
	MetricCollectionInterval time.Duration
	MetricMaxAge             time.Duration
}

type Daemon struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	startTime    time.Time

	InstanceID       uuid.UUID
	buffer           *framebuffer.Buffer
	commits          *mpmc.Queue[shared.CommitEvent] // nil without a commit consumer
	Listener         *listener.Instance
	Beats            *beats.OutModule
	Stream           *server.StreamHub
	metricsCollector *metrics.Gatherer
	HTTPServer       *http.Server
}
