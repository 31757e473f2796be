package sender

import (
	"ddpsink/internal/metrics"
	"time"
)

func (instance *Instance) CollectMetrics(interval time.Duration) (collection []metrics.Metric) {
	// Read and clear
	totalPkts := instance.Metrics.TotalPackets.Swap(0)
	totalFrames := instance.Metrics.TotalFrames.Swap(0)
	sumPktSizeB := instance.Metrics.SumPacketBytes.Swap(0)
	maxPktSizeB := instance.Metrics.MaxPacketBytes.Swap(0)
	sendErrors := instance.Metrics.SendErrors.Swap(0)

	// Record read time
	recordTime := time.Now()

	var avgPktSize uint64
	if totalPkts > 0 {
		avgPktSize = sumPktSizeB / totalPkts
	}

	add := func(name, description, unit string, raw uint64, metricType metrics.MetricType) {
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

	add("total_sent_packets", "Total packets sent in the interval", "count", totalPkts, metrics.Counter)
	add("total_sent_frames", "Total frames completed in the interval", "count", totalFrames, metrics.Counter)
	add("sum_packet_size", "Total size of all packets sent in the interval", "bytes", sumPktSizeB, metrics.Counter)
	add("maximum_packet_size", "Maximum (seen) size across all packets sent in the interval", "bytes", maxPktSizeB, metrics.Gauge)
	add("average_packet_size", "Average size across all packets sent in the interval", "bytes", avgPktSize, metrics.Summary)
	add("send_errors", "Packets the socket refused in the interval", "count", sendErrors, metrics.Counter)
	return
}
