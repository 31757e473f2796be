// Gathers component metrics and saves to central registry
package metrics

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/metrics"
	"ddpsink/internal/receiver/listener"
	"runtime/debug"
	"time"
)

// Samples of busy_time_percent considered for the saturation check
const loadTrendSamples int = 5

func New(interval time.Duration, maximumMetricAge time.Duration, sources ...Collector) (new *Gatherer) {
	new = &Gatherer{
		Registry:  metrics.New(),
		Interval:  interval,
		Retention: maximumMetricAge,
		sources:   sources,
	}
	return
}

// Enables the saturation warning for the listener reporting under namespace
func (gatherer *Gatherer) WatchLoad(namespace []string) {
	gatherer.loadProbe = namespace
}

func (gatherer *Gatherer) Run(ctx context.Context) {
	ctx = logctx.AppendCtxTag(ctx, global.NSMetric)

	lastRun := time.Now()

	ticker := time.NewTicker(gatherer.Interval / 2) // Use polling interval half of desired record interval
	defer ticker.Stop()

	// Counter to track how many ticks have passed (for retention)
	var tickCount int

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(lastRun) >= gatherer.Interval {
				lastRun = now
				gatherer.Collect(ctx, now)
			}

			tickCount++
			if tickCount >= 30 {
				gatherer.Registry.Prune(now, gatherer.Retention)
				tickCount = 0
			}
		}
	}
}

// Reads every source into a new time slice
func (gatherer *Gatherer) Collect(ctx context.Context, now time.Time) {
	// Record panics and continue on next interval
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in receiver metric collector thread: %v\n%s", fatalError, stack)
		}
	}()

	timeSlice := gatherer.Registry.NewTimeSlice(now, gatherer.Interval)
	for _, source := range gatherer.sources {
		gatherer.Registry.Add(timeSlice, source.CollectMetrics(gatherer.Interval))
	}

	if gatherer.loadProbe != nil {
		gatherer.checkLoad(ctx, now)
	}
}

// Warns when the single listener trends towards being busy all the time
func (gatherer *Gatherer) checkLoad(ctx context.Context, now time.Time) {
	window := gatherer.Interval * time.Duration(loadTrendSamples)
	samples := gatherer.Registry.Search("busy_time_percent", gatherer.loadProbe, now.Add(-window), now)
	if len(samples) < loadTrendSamples {
		return
	}

	var busyTimes []float64
	for _, sample := range samples[len(samples)-loadTrendSamples:] {
		value, ok := sample.Value.Raw.(float64)
		if !ok {
			return
		}
		busyTimes = append(busyTimes, value)
	}

	saturating, _ := listener.Trend(busyTimes)
	if saturating {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Listener busy time is rising towards saturation (last %.1f%%), datagrams may be dropped by the kernel\n",
			busyTimes[len(busyTimes)-1])
	}
}
