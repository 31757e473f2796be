package server

import (
	"ddpsink/internal/framebuffer"
	"ddpsink/internal/metrics"
	"time"
)

func mockDiscoverer(results []metrics.Metric) Discoverer {
	return func(name, desc string, ns []string, unit string, mt metrics.MetricType) []metrics.Metric {
		return results
	}
}

func mockDataSearcher(results []metrics.Metric) DataSearcher {
	return func(name string, ns []string, start, end time.Time) []metrics.Metric {
		return results
	}
}

func mockAggSearcher(result metrics.Metric, err error) AggSearcher {
	return func(agg, name string, ns []string, start, end time.Time) (metrics.Metric, error) {
		return result, err
	}
}

func mockSources(buffer *framebuffer.Buffer) Sources {
	return Sources{
		Buffer:    buffer,
		Search:    mockDataSearcher(nil),
		Discover:  mockDiscoverer(nil),
		Aggregate: mockAggSearcher(metrics.Metric{}, nil),
	}
}

func filledBuffer(pixels ...framebuffer.Pixel) (buffer *framebuffer.Buffer) {
	buffer = framebuffer.New(1 << 16)
	if len(pixels) > 0 {
		buffer.WriteRange(0, pixels)
	}
	buffer.Commit()
	return
}
