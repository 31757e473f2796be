package metrics

import (
	"fmt"
	"strconv"
	"time"
)

// Converts internal metric type to export (JSON) metric. Discovery results
// (no value, no timestamp) leave those fields empty.
func (inMetric Metric) Convert() (outMetric JMetric) {
	outMetric = JMetric{
		Name:        inMetric.Name,
		Description: inMetric.Description,
		Namespace:   namespaceKey(inMetric.Namespace),
		Type:        string(inMetric.Type),
		Value: JMetricValue{
			Raw:  formatRaw(inMetric.Value.Raw),
			Unit: inMetric.Value.Unit,
		},
	}
	if inMetric.Value.Interval > 0 {
		outMetric.Value.Interval = inMetric.Value.Interval.String()
	}
	if !inMetric.Timestamp.IsZero() {
		outMetric.Timestamp = inMetric.Timestamp.Format(time.RFC3339Nano)
	}
	return
}

// Converts a result set, nil when empty
func ConvertAll(inMetrics []Metric) (outMetrics []JMetric) {
	for _, metric := range inMetrics {
		outMetrics = append(outMetrics, metric.Convert())
	}
	return
}

// Shortest text that parses back to the same number
func formatRaw(raw any) (text string) {
	switch typed := raw.(type) {
	case nil:
	case uint64:
		text = strconv.FormatUint(typed, 10)
	case int:
		text = strconv.Itoa(typed)
	case int64:
		text = strconv.FormatInt(typed, 10)
	case float64:
		text = strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		text = strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case string:
		text = typed
	default:
		text = fmt.Sprint(typed)
	}
	return
}
