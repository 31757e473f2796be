package listener

import (
	"ddpsink/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	BusyNs         atomic.Uint64 // sum of ns spent handling datagrams
	Datagrams      atomic.Uint64 // datagrams read from the socket
	Bytes          atomic.Uint64 // datagram bytes read from the socket
	DecodeErrors   atomic.Uint64 // header too short or timecode truncated
	ApplyErrors    atomic.Uint64 // malformed frames and refused writes
	Duplicates     atomic.Uint64 // back-to-back repeats skipped
	Pushes         atomic.Uint64 // applied datagrams with the push flag
	CommitsDropped atomic.Uint64 // commit events lost to a full queue
	SumNs          atomic.Uint64 // sum of elapsed ns for all datagrams
	MaxNs          atomic.Uint64 // max observed datagram duration
}

func (instance *Instance) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	// Read and clear
	busyNs := instance.Metrics.BusyNs.Swap(0)
	datagrams := instance.Metrics.Datagrams.Swap(0)
	bytes := instance.Metrics.Bytes.Swap(0)
	decodeErrors := instance.Metrics.DecodeErrors.Swap(0)
	applyErrors := instance.Metrics.ApplyErrors.Swap(0)
	duplicates := instance.Metrics.Duplicates.Swap(0)
	pushes := instance.Metrics.Pushes.Swap(0)
	dropped := instance.Metrics.CommitsDropped.Swap(0)
	sumNs := instance.Metrics.SumNs.Swap(0)
	maxNs := instance.Metrics.MaxNs.Swap(0)

	recordTime := time.Now()

	// Percent worker was busy
	var busyPct float64
	if interval > 0 {
		busyPct = (float64(busyNs) / float64(interval.Nanoseconds())) * 100
	}

	var avgNs uint64
	if datagrams > 0 {
		avgNs = sumNs / datagrams
	}

	add := func(name, description string, raw any, unit string, metricType metrics.MetricType) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   instance.Namespace,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
			Type:      metricType,
			Timestamp: recordTime,
		})
	}

	add("busy_time_percent", "Total time spent handling datagrams in the interval", busyPct, "%", metrics.Summary)
	add("total_datagrams", "Total datagrams received in the interval", datagrams, "count", metrics.Counter)
	add("received_bytes", "Total datagram bytes received in the interval", bytes, "bytes", metrics.Counter)
	add("decode_errors_total", "Datagrams that failed header or timecode decoding in the interval", decodeErrors, "count", metrics.Counter)
	add("apply_errors_total", "Decoded datagrams the assembler rejected in the interval", applyErrors, "count", metrics.Counter)
	add("duplicates_total", "Back-to-back repeated datagrams skipped in the interval", duplicates, "count", metrics.Counter)
	add("push_total", "Applied datagrams carrying the push flag in the interval", pushes, "count", metrics.Counter)
	add("commits_dropped_total", "Commit events dropped because the export queue was full in the interval", dropped, "count", metrics.Counter)
	add("elapsed_time_sum_ns", "Total time spent handling datagrams in the interval", sumNs, "ns", metrics.Counter)
	add("elapsed_time_avg_ns", "Average time spent handling a datagram in the interval", avgNs, "ns", metrics.Summary)
	add("elapsed_time_max_ns", "Maximum (seen) time spent handling a datagram in the interval", maxNs, "ns", metrics.Summary)

	// Buffer state is sampled here as the listener owns it
	add("buffer_pixels", "Current pixel buffer length", uint64(instance.buffer.Len()), "count", metrics.Gauge)
	add("buffer_version", "Writes committed to the pixel buffer since start", instance.buffer.Version(), "count", metrics.Gauge)
	return
}
