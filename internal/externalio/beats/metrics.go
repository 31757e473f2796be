package beats

import (
	"ddpsink/internal/metrics"
	"time"
)

func (mod *OutModule) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	sent := mod.Metrics.EventsSent.Swap(0)
	sendErrors := mod.Metrics.SendErrors.Swap(0)
	reconnects := mod.Metrics.Reconnects.Swap(0)
	sumNs := mod.Metrics.SumNs.Swap(0)
	maxNs := mod.Metrics.MaxNs.Swap(0)

	var avgNs uint64
	if sent > 0 {
		avgNs = sumNs / sent
	}

	mod.mu.Lock()
	var connected uint64
	if mod.sink != nil {
		connected = 1
	}
	mod.mu.Unlock()

	recordTime := time.Now()

	add := func(name, description, unit string, value uint64, metricType metrics.MetricType) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   mod.Namespace,
			Value: metrics.MetricValue{
				Raw:      value,
				Unit:     unit,
				Interval: interval,
			},
			Type:      metricType,
			Timestamp: recordTime,
		})
	}

	add("events_sent", "Commit events acknowledged by the beats server", "count", sent, metrics.Counter)
	add("send_errors", "Commit events that could not be delivered", "count", sendErrors, metrics.Counter)
	add("reconnects", "Attempts to re-establish the beats connection", "count", reconnects, metrics.Counter)
	add("connected", "Whether a beats connection is currently open", "bool", connected, metrics.Gauge)
	add("avg_send_time", "Average time to send and acknowledge an event", "ns", avgNs, metrics.Summary)
	add("max_send_time", "Longest time to send and acknowledge an event", "ns", maxNs, metrics.Summary)
	return
}
