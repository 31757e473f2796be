package cli

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/lifecycle"
	"ddpsink/internal/logctx"
	"ddpsink/internal/receiver"
	"flag"
	"fmt"
	"os"
)

func ReceiveMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) {
	var configPath string
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	SetCommon(commandFlags, &configPath)

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])
	logctx.SetLogLevel(ctx, global.Verbosity)

	jsonCfg, err := receiver.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	daemonConfig, err := jsonCfg.NewDaemonConf()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	recvDaemon := receiver.NewDaemon(daemonConfig)
	err = recvDaemon.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting receiving daemon: %v\n", err)
		os.Exit(1)
	}

	// Signals end the daemon, which ends Run
	go lifecycle.SignalHandler(ctx, recvDaemon)

	recvDaemon.Run()
}
