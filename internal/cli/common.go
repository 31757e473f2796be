package cli

import (
	"ddpsink/internal/global"
	"flag"
)

func SetGlobalArguments(fs *flag.FlagSet) (level *int) {
	fs.IntVar(&global.Verbosity, "v", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	fs.IntVar(&global.Verbosity, "verbosity", 1, "Increase detailed progress messages (Higher is more verbose) <0...5>")
	level = &global.Verbosity
	return
}

func SetCommon(fs *flag.FlagSet, configPath *string) {
	fs.StringVar(configPath, "c", global.DefaultConfigPath, "Path to the configuration file")
	fs.StringVar(configPath, "config", global.DefaultConfigPath, "Path to the configuration file")
}
