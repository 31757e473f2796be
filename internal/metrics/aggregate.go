package metrics

import (
	"ddpsink/internal/calc"
	"ddpsink/internal/global"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Share of samples dropped from each end for trimmed means
const trimmedMeanPercent float64 = 0.1

// Combines every matching metric value in the time window into one summary metric
func (registry *Registry) Aggregate(aggType, name string, namespacePrefix []string, start, end time.Time) (result Metric, err error) {
	matches := registry.Search(name, namespacePrefix, start, end)
	if len(matches) == 0 {
		err = fmt.Errorf("no metrics named '%s' under '%s' in the requested window", name, strings.Join(namespacePrefix, "/"))
		return
	}

	values := make([]float64, 0, len(matches))
	for _, match := range matches {
		var value float64
		value, err = toFloat(match.Value.Raw)
		if err != nil {
			err = fmt.Errorf("metric %s at %s: %w", match.Name, match.Timestamp.Format(time.RFC3339), err)
			return
		}
		values = append(values, value)
	}

	var combined float64
	switch aggType {
	case global.MetricSum, global.MetricAvg:
		for _, value := range values {
			combined += value
		}
		if aggType == global.MetricAvg {
			combined /= float64(len(values))
		}
	case global.MetricMin:
		combined = values[0]
		for _, value := range values[1:] {
			combined = min(combined, value)
		}
	case global.MetricMax:
		combined = values[0]
		for _, value := range values[1:] {
			combined = max(combined, value)
		}
	case global.MetricTrimmedMean:
		combined = calc.TrimmedMean(values, trimmedMeanPercent)
	default:
		err = fmt.Errorf("unknown aggregation type '%s'", aggType)
		return
	}

	result = Metric{
		Name:        name,
		Description: aggType + " of " + matches[0].Description,
		Namespace:   namespacePrefix,
		Type:        Summary,
		Timestamp:   matches[len(matches)-1].Timestamp,
		Value: MetricValue{
			Raw:      combined,
			Unit:     matches[0].Value.Unit,
			Interval: end.Sub(start),
		},
	}
	return
}

func toFloat(raw any) (value float64, err error) {
	switch typed := raw.(type) {
	case int:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case uint64:
		value = float64(typed)
	case uint32:
		value = float64(typed)
	case float64:
		value = typed
	case float32:
		value = float64(typed)
	case string:
		value, err = strconv.ParseFloat(typed, 64)
		if err != nil {
			err = fmt.Errorf("non-numeric value %q", typed)
		}
	default:
		err = fmt.Errorf("non-numeric value of type %T", raw)
	}
	return
}
