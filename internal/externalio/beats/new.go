// Beats (lumberjack) export of pixel buffer commit events
package beats

import (
	"ddpsink/internal/global"
	"fmt"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

func dialLumberjack(endpoint string) (sink eventSink, err error) {
	compression := lumberjack.CompressionLevel(0)
	timeout := lumberjack.Timeout(dialTimeout)

	ljClient, err := lumberjack.SyncDial(endpoint, compression, timeout)
	if err != nil {
		err = fmt.Errorf("failed connection to beats server: %w", err)
		return
	}
	sink = ljClient
	return
}

// Creates new beats (lumberjack) output module. Returns nil nil if no endpoint.
// A failed initial dial still returns a usable module (redialed on the next write) along with the dial error.
func NewOutput(namespace []string, endpoint, instanceID string) (module *OutModule, err error) {
	module, err = newOutput(namespace, endpoint, instanceID, dialLumberjack)
	return
}

func newOutput(namespace []string, endpoint, instanceID string, dial dialFunc) (module *OutModule, err error) {
	if endpoint == "" {
		return
	}

	module = &OutModule{
		Namespace:  append(append([]string{}, namespace...), global.NSoBeats),
		endpoint:   endpoint,
		instanceID: instanceID,
		dial:       dial,
		Metrics:    &MetricStorage{},
	}
	module.sink, err = dial(endpoint)
	if err != nil {
		module.sink = nil
	}
	return
}
