package metrics

import (
	"ddpsink/internal/metrics"
	"time"
)

// Any component that reports (and resets) its interval counters
type Collector interface {
	CollectMetrics(interval time.Duration) []metrics.Metric
}

type Gatherer struct {
	Interval  time.Duration     // Polling interval to gather metrics at
	Retention time.Duration     // Maximum time to maintain metrics for
	Registry  *metrics.Registry // Storage for metric data
	sources   []Collector
	loadProbe []string // namespace of the busy_time_percent series watched for saturation
}
