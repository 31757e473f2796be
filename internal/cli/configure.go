package cli

import (
	"bufio"
	"ddpsink/internal/global"
	"ddpsink/internal/receiver"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Setup options
func SetupMode(cliOpts *global.CommandSet, commandname string, args []string) {
	var newRecvConf bool
	var templateConfPath string

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	commandFlags.StringVar(&templateConfPath, "c", "", "Path to template config file")
	commandFlags.StringVar(&templateConfPath, "config", "", "Path to template config file")
	commandFlags.BoolVar(&newRecvConf, "config-template", false, "Create new template config for the receiver daemon (using config argument)")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	if len(args) < 1 {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}
	commandFlags.Parse(args[0:])

	if !newRecvConf {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
		os.Exit(1)
	}

	if !confirmOverwrite(templateConfPath) {
		fmt.Printf("Not overwriting configuration file\n")
		return
	}

	err := receiver.WriteTemplateConfig(templateConfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote template configuration file to '%s'\n", templateConfPath)
}

// Asks before replacing an existing file; without a terminal nothing is overwritten
func confirmOverwrite(path string) (overwrite bool) {
	_, err := os.Stat(path)
	if err != nil {
		overwrite = true
		return
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	fmt.Printf("Configuration file already exists at '%s'. Are you SURE you want to overwrite it? (yes/no): ", path)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	overwrite = strings.ToLower(strings.TrimSpace(input)) == "yes"
	return
}
