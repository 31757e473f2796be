package assembler

import (
	"ddpsink/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	AppliedPackets   atomic.Uint64 // packets written to the buffer
	MalformedPackets atomic.Uint64 // payload shorter than declared size
	IgnoredPackets   atomic.Uint64 // query/reply/storage packets
	FailedWrites     atomic.Uint64 // buffer rejected the write
	PixelsWritten    atomic.Uint64
	SumNs            atomic.Uint64 // sum of elapsed ns for all ops
	MaxNs            atomic.Uint64 // max observed op duration
}

func (instance *Instance) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	// Read and clear
	applied := instance.Metrics.AppliedPackets.Swap(0)
	malformed := instance.Metrics.MalformedPackets.Swap(0)
	ignored := instance.Metrics.IgnoredPackets.Swap(0)
	failed := instance.Metrics.FailedWrites.Swap(0)
	pixels := instance.Metrics.PixelsWritten.Swap(0)
	sumNs := instance.Metrics.SumNs.Swap(0)
	maxNs := instance.Metrics.MaxNs.Swap(0)

	recordTime := time.Now()

	total := applied + malformed + ignored + failed
	var avgNs uint64
	if total > 0 {
		avgNs = sumNs / total
	}

	counter := func(name, description, unit string, value uint64) metrics.Metric {
		return metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   instance.Namespace,
			Value: metrics.MetricValue{
				Raw:      value,
				Unit:     unit,
				Interval: interval,
			},
			Type:      metrics.Counter,
			Timestamp: recordTime,
		}
	}
	summary := func(name, description string, value uint64) (metric metrics.Metric) {
		metric = counter(name, description, "ns", value)
		metric.Type = metrics.Summary
		return
	}

	collection = []metrics.Metric{
		counter("applied_packets_total", "Packets written to the pixel buffer in the interval", "count", applied),
		counter("malformed_packets_total", "Packets whose payload was shorter than the declared size in the interval", "count", malformed),
		counter("ignored_packets_total", "Query, reply and storage packets skipped in the interval", "count", ignored),
		counter("failed_writes_total", "Packets the pixel buffer refused in the interval", "count", failed),
		counter("pixels_written_total", "Pixels written to the buffer in the interval", "count", pixels),
		counter("elapsed_time_sum_ns", "Total time spent assembling packets in the interval", "ns", sumNs),
		summary("elapsed_time_avg_ns", "Average time spent assembling a packet in the interval", avgNs),
		summary("elapsed_time_max_ns", "Maximum (seen) time spent assembling a packet in the interval", maxNs),
	}
	return
}
