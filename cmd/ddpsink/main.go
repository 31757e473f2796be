package main

import (
	"context"
	"ddpsink/internal/cli"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"flag"
	"fmt"
	"os"
	"runtime"
)

func main() {
	cliOpts := cli.DefineOptions()
	global.CmdOpts = cliOpts

	args := os.Args
	commandFlags := flag.NewFlagSet(args[0], flag.ExitOnError)
	requestedLogLevel := cli.SetGlobalArguments(commandFlags)

	commandFlags.Usage = func() {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
	}
	if len(args) < 2 {
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}

	// Retrieve command and args
	command := args[1]
	args = args[2:]

	// Subcommands parse their own flags, including verbosity
	if len(command) > 0 && command[0] == '-' {
		commandFlags.Parse(os.Args[1:])
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}

	// Setting global logging
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logctx.NewLogger("global", *requestedLogLevel, ctx.Done()) // New logger tied to global
	ctx = logctx.WithLogger(ctx, logger)                                 // Add logger to global ctx
	logctx.StartWatcher(logger, os.Stdout)                               // Send received output to stdout

	// Process commands
	switch command {
	case "receive":
		cli.ReceiveMode(ctx, cliOpts, command, args)
	case "send":
		cli.SendMode(ctx, cliOpts, command, args)
	case "snapshot":
		cli.SnapshotMode(ctx, cliOpts, command, args)
	case "configure":
		cli.SetupMode(cliOpts, command, args)
	case "version":
		if len(args) > 0 && (args[0] == "--verbosity" || args[0] == "-v") {
			fmt.Printf("%s %s\n", global.ProgBaseName, global.ProgVersion)
			fmt.Printf("Built using %s(%s) for %s on %s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
		} else {
			fmt.Println(global.ProgVersion)
		}
	default:
		cli.PrintHelpMenu(commandFlags, cli.RootCLICommand, cliOpts)
		os.Exit(1)
	}

	// Finish up any stdout writes for global logger
	cancel()
	logger.Wake()
	logger.Wait()
}
