package receiver

import (
	"ddpsink/internal/global"
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
	"time"
)

// Loads JSON config from file
func LoadConfig(path string) (cfg JSONConfig, err error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config file: %w", err)
		return
	}

	err = json.Unmarshal(configFile, &cfg)
	if err != nil {
		err = fmt.Errorf("invalid config syntax in '%s': %w", path, err)
		return
	}

	return
}

// Empty durations stay zero so defaults apply
func parseDuration(field, raw string) (dur time.Duration, err error) {
	if raw == "" {
		return
	}
	dur, err = time.ParseDuration(raw)
	if err != nil {
		err = fmt.Errorf("failed to parse %s: %w", field, err)
		return
	}
	if dur < 0 {
		err = fmt.Errorf("%s must not be negative (got %s)", field, raw)
		return
	}
	return
}

// Parses JSON config into daemon config
func (cfg JSONConfig) NewDaemonConf() (config Config, err error) {
	// Network settings
	config.ListenIP = cfg.Network.Address
	config.ListenPort = cfg.Network.Port
	config.SuppressDuplicates = cfg.Network.SuppressDuplicates
	if config.ListenPort < 0 || config.ListenPort > 65535 {
		err = fmt.Errorf("invalid listen port %d", config.ListenPort)
		return
	}

	// Buffer settings
	config.MaxPixels = cfg.Buffer.MaxPixels
	if config.MaxPixels < 0 {
		err = fmt.Errorf("maximum pixel count must not be negative (got %d)", config.MaxPixels)
		return
	}

	// Draining
	config.DrainProgramPath = cfg.Draining.ProgramPath
	config.DrainMapPath = cfg.Draining.MapPath

	// Consumer server settings
	config.ServerEnabled = cfg.Consumers.EnableServer
	config.ServerAddress = cfg.Consumers.Address
	config.ServerPort = cfg.Consumers.Port
	config.StreamInterval, err = parseDuration("stream interval", cfg.Consumers.StreamInterval)
	if err != nil {
		return
	}

	// Output settings
	config.BeatsEndpoint = cfg.Outputs.BeatsAddress
	config.CommitQueueSize = cfg.Outputs.CommitQueueSize

	// Metric settings
	config.MetricMaxAge, err = parseDuration("metric max age time", cfg.Metrics.MaxAge)
	if err != nil {
		return
	}
	config.MetricCollectionInterval, err = parseDuration("metric collection interval time", cfg.Metrics.Interval)
	if err != nil {
		return
	}
	return
}

// Sets defaults for any missing/invalid values
func (cfg *Config) setDefaults() {
	// Network
	if cfg.ListenIP == "" {
		cfg.ListenIP = global.DefaultListenIP
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = global.DefaultReceiverPort
	}

	// Consumer server
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = global.HTTPListenAddr
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = global.HTTPListenPort
	}
	if cfg.StreamInterval == 0 {
		cfg.StreamInterval = global.DefaultStreamInterval
	}

	// Commit queue must be a power of two
	if cfg.CommitQueueSize < 2 {
		cfg.CommitQueueSize = global.DefaultCommitQueueSize
	}
	if cfg.CommitQueueSize&(cfg.CommitQueueSize-1) != 0 {
		cfg.CommitQueueSize = 1 << bits.Len(uint(cfg.CommitQueueSize))
	}

	// Metrics
	if cfg.MetricMaxAge == 0 {
		cfg.MetricMaxAge = global.DefaultMetricMaxAge
	}
	if cfg.MetricCollectionInterval == 0 {
		cfg.MetricCollectionInterval = global.DefaultMetricInterval
	}
}
