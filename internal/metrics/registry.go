// Central registry for storing time-sliced metrics collected from receiver components
package metrics

import (
	"slices"
	"time"
)

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{
		slices: make(map[time.Time]sliceMetrics),
	}
	return
}

// Setup metrics map for this collection interval and return its key
func (registry *Registry) NewTimeSlice(now time.Time, interval time.Duration) (timeSlice time.Time) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	timeSlice = now
	if interval > 0 {
		timeSlice = now.Truncate(interval)
	}
	if registry.slices[timeSlice] == nil {
		registry.slices[timeSlice] = make(sliceMetrics)
	}
	return
}

// Adds batch of metrics to an existing time slice. Unknown slices are ignored.
func (registry *Registry) Add(timeSlice time.Time, metrics []Metric) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	slice, ok := registry.slices[timeSlice]
	if !ok {
		return
	}

	for _, metric := range metrics {
		namespace := namespaceKey(metric.Namespace)
		if slice[namespace] == nil {
			slice[namespace] = make(map[string]Metric)
		}
		slice[namespace][metric.Name] = metric
	}
}

// Deletes time slices older than maxAge relative to currentTime
func (registry *Registry) Prune(currentTime time.Time, maxAge time.Duration) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for timeSlice := range registry.slices {
		if currentTime.Sub(timeSlice) > maxAge {
			delete(registry.slices, timeSlice)
		}
	}
}

// Time slice keys within [start, end] oldest first. Zero bounds are open.
// Caller must hold the read lock.
func (registry *Registry) slicesBetween(start, end time.Time) (timestamps []time.Time) {
	for ts := range registry.slices {
		if !start.IsZero() && ts.Before(start) {
			continue
		}
		if !end.IsZero() && ts.After(end) {
			continue
		}
		timestamps = append(timestamps, ts)
	}
	slices.SortFunc(timestamps, func(a, b time.Time) int { return a.Compare(b) })
	return
}
