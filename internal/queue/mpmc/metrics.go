package mpmc

import (
	"ddpsink/internal/metrics"
	"sync/atomic"
	"time"
)

type MetricStorage struct {
	Depth atomic.Uint64 // Current items in queue

	PushAttempts   atomic.Uint64 // every Push call
	PushSuccess    atomic.Uint64 // CAS success
	PushFull       atomic.Uint64 // rejected because the ring was full
	PushCASRetries atomic.Uint64 // CAS failed (seq==pos but CAS failed)

	PopAttempts   atomic.Uint64 // every Pop loop iteration
	PopSuccess    atomic.Uint64 // CAS success
	PopCASRetries atomic.Uint64 // CAS failed
}

func (queue *Queue[T]) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	recordTime := time.Now()

	add := func(name string, raw uint64, unit string, t metrics.MetricType, description string) {
		collection = append(collection, metrics.Metric{
			Name:        name,
			Description: description,
			Namespace:   queue.Namespace,
			Type:        t,
			Timestamp:   recordTime,
			Value: metrics.MetricValue{
				Raw:      raw,
				Unit:     unit,
				Interval: interval,
			},
		})
	}

	add("depth", queue.Metrics.Depth.Load(), "count", metrics.Gauge, "Current number of items in the queue")
	add("push_attempts", queue.Metrics.PushAttempts.Swap(0), "count", metrics.Counter, "Total push attempts in the interval")
	add("push_success", queue.Metrics.PushSuccess.Swap(0), "count", metrics.Counter, "Total push attempts that succeeded in the interval")
	add("push_full", queue.Metrics.PushFull.Swap(0), "count", metrics.Counter, "Total pushes dropped because the queue was full in the interval")
	add("push_cas_retries", queue.Metrics.PushCASRetries.Swap(0), "count", metrics.Counter, "Sum of retries to push in the interval")
	add("pop_attempts", queue.Metrics.PopAttempts.Swap(0), "count", metrics.Counter, "Total pop attempts in the interval")
	add("pop_success", queue.Metrics.PopSuccess.Swap(0), "count", metrics.Counter, "Total pop attempts that succeeded in the interval")
	add("pop_cas_retries", queue.Metrics.PopCASRetries.Swap(0), "count", metrics.Counter, "Sum of retries to pop in the interval")
	return
}
