package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Registry struct {
	mu     sync.RWMutex
	slices map[time.Time]sliceMetrics
}

// Metrics recorded in one collection interval: namespace key -> metric name -> metric
type sliceMetrics map[string]map[string]Metric

type MetricType string

const (
	Counter MetricType = "counter" // events in the interval
	Gauge   MetricType = "gauge"   // point in time level (buffer length, queue depth)
	Summary MetricType = "summary" // avg/max/percent over the interval
)

// Maps a query parameter to a metric type. Empty means any type.
func ParseType(raw string) (metricType MetricType, err error) {
	switch candidate := MetricType(strings.ToLower(raw)); candidate {
	case "", Counter, Gauge, Summary:
		metricType = candidate
	default:
		err = fmt.Errorf("unknown metric type %q", raw)
	}
	return
}

// Container for a metric and associated data
type Metric struct {
	Name        string // e.g. applied_packets_total, frames_sent
	Description string
	Namespace   []string // e.g. ["Receiver", "Listener", "Assembler"]
	Value       MetricValue
	Type        MetricType
	Timestamp   time.Time // collection time slice
}

// Registry key for a namespace
func namespaceKey(namespace []string) string {
	return strings.Join(namespace, "/")
}

type MetricValue struct {
	Raw      any           // uint64 or float64 from collectors
	Unit     string        // "ns", "bytes", "count", "%"
	Interval time.Duration // collection window the value covers
}

// JSON version
type JMetric struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Namespace   string       `json:"namespace"`
	Value       JMetricValue `json:"value"`
	Type        string       `json:"type"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type JMetricValue struct {
	Raw      string `json:"raw,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Interval string `json:"interval,omitempty"`
}
