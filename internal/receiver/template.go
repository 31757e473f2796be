package receiver

import (
	"ddpsink/internal/global"
	"encoding/json"
	"fmt"
	"os"
)

// Template receiver config populated with the built-in defaults
func templateConfig() (newCfg JSONConfig) {
	newCfg.Network.Address = global.DefaultListenIP
	newCfg.Network.Port = global.DefaultReceiverPort

	newCfg.Consumers.EnableServer = true
	newCfg.Consumers.Address = global.HTTPListenAddr
	newCfg.Consumers.Port = global.HTTPListenPort
	newCfg.Consumers.StreamInterval = global.DefaultStreamInterval.String()

	newCfg.Outputs.CommitQueueSize = global.DefaultCommitQueueSize

	newCfg.Metrics.Interval = global.DefaultMetricInterval.String()
	newCfg.Metrics.MaxAge = global.DefaultMetricMaxAge.String()
	return
}

// Writes the template config to filepath (truncating any existing file)
func WriteTemplateConfig(filepath string) (err error) {
	if filepath == "" {
		err = fmt.Errorf("specify template file path via the --config/-c arguments")
		return
	}

	confBytes, err := json.MarshalIndent(templateConfig(), "", "  ")
	if err != nil {
		err = fmt.Errorf("error marshaling new config: %w", err)
		return
	}
	confBytes = append(confBytes, '\n')

	newConfFile, err := os.OpenFile(filepath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open template config file: %w", err)
		return
	}
	defer newConfFile.Close()

	_, err = newConfFile.Write(confBytes)
	if err != nil {
		err = fmt.Errorf("failed to write config to file: %w", err)
		return
	}
	return
}
