package metrics

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Prefix match on namespace components. Empty query matches all.
func matchesNamespace(metricNS, queryNS []string) bool {
	return len(metricNS) >= len(queryNS) && slices.Equal(metricNS[:len(queryNS)], queryNS)
}

// Returns every recorded value of name (all names when empty) under namespacePrefix
// within [start, end], oldest slice first.
func (registry *Registry) Search(name string, namespacePrefix []string, start, end time.Time) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for _, ts := range registry.slicesBetween(start, end) {
		for nsKey, byName := range registry.slices[ts] {
			if !matchesNamespace(strings.Split(nsKey, "/"), namespacePrefix) {
				continue
			}
			if name != "" {
				if metric, ok := byName[name]; ok {
					results = append(results, metric)
				}
				continue
			}
			for _, metric := range byName {
				results = append(results, metric)
			}
		}
	}
	return
}

// Identity of a metric series, independent of when it was recorded
type seriesKey struct {
	namespace  string
	name       string
	metricType MetricType
	unit       string
}

// Lists distinct metric series matching all non-empty filters (name and description
// are substring matches). Results carry no value or timestamp, sorted by name, namespace, unit.
func (registry *Registry) Discover(name, description string, namespacePrefix []string, unit string, metricType MetricType) (results []Metric) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	matches := func(metric Metric) bool {
		return strings.Contains(metric.Name, name) &&
			strings.Contains(metric.Description, description) &&
			(unit == "" || metric.Value.Unit == unit) &&
			(metricType == "" || metric.Type == metricType)
	}

	seen := make(map[seriesKey]bool)
	for _, slice := range registry.slices {
		for nsKey, byName := range slice {
			if !matchesNamespace(strings.Split(nsKey, "/"), namespacePrefix) {
				continue
			}
			for _, metric := range byName {
				if !matches(metric) {
					continue
				}

				key := seriesKey{nsKey, metric.Name, metric.Type, metric.Value.Unit}
				if seen[key] {
					continue
				}
				seen[key] = true

				results = append(results, Metric{
					Name:        metric.Name,
					Description: metric.Description,
					Namespace:   metric.Namespace,
					Type:        metric.Type,
					Value:       MetricValue{Unit: metric.Value.Unit},
				})
			}
		}
	}

	slices.SortFunc(results, func(a, b Metric) int {
		return cmp.Or(
			strings.Compare(a.Name, b.Name),
			strings.Compare(namespaceKey(a.Namespace), namespaceKey(b.Namespace)),
			strings.Compare(a.Value.Unit, b.Value.Unit),
			strings.Compare(string(a.Type), string(b.Type)),
		)
	})
	return
}
