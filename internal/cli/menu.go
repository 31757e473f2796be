package cli

import (
	"ddpsink/internal/global"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
DDP reference: <http://www.3waylabs.com/ddp/>
`
	menuIndent string = "  "
)

// Full standardized help menu (wraps option printer as well)
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, fs, command, rootCmd)
}

func writeHelpMenu(w io.Writer, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	curCmdSet, parentStack, found := findCommand(command, rootCmd)
	if !found {
		fmt.Fprintf(w, "Unknown command: %s\n", command)
		return
	}

	fmt.Fprintf(w, "Usage: %s\n\n", usageLine(curCmdSet, parentStack))

	switch {
	case curCmdSet == rootCmd:
		fmt.Fprintf(w, "%s\n%s\n\n", curCmdSet.Description, curCmdSet.FullDescription)
	case curCmdSet.FullDescription != "":
		fmt.Fprintf(w, "%sDescription:\n%s%s%s\n\n", menuIndent, menuIndent, menuIndent, curCmdSet.FullDescription)
	}

	if len(curCmdSet.ChildCommands) > 0 {
		fmt.Fprintf(w, "%sSubcommands:\n", menuIndent)
		table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, name := range slices.Sorted(maps.Keys(curCmdSet.ChildCommands)) {
			fmt.Fprintf(table, "%s%s%s\t- %s\n", menuIndent, menuIndent, name, curCmdSet.ChildCommands[name].Description)
		}
		table.Flush()
		fmt.Fprintln(w)
	}

	if fs != nil {
		writeFlagOptions(w, fs)
	}

	if curCmdSet == rootCmd {
		fmt.Fprint(w, helpMenuTrailer)
	}
}

// Program name, command path (root omitted) and the expected argument
func usageLine(curCmdSet *global.CommandSet, parentStack []*global.CommandSet) (line string) {
	parts := []string{os.Args[0]}
	for _, parent := range append(parentStack, curCmdSet) {
		if parent.CommandName == RootCLICommand {
			continue
		}
		parts = append(parts, parent.CommandName)
	}

	switch len(curCmdSet.ChildCommands) {
	case 0:
	case 1:
		parts = append(parts, slices.Collect(maps.Keys(curCmdSet.ChildCommands))...)
	default:
		parts = append(parts, "[subcommand]")
	}
	if curCmdSet.UsageOption != "" {
		parts = append(parts, curCmdSet.UsageOption)
	}

	line = strings.Join(parts, " ")
	return
}

// Locates command in the tree along with its parents (root first)
func findCommand(command string, rootCmd *global.CommandSet) (curCmdSet *global.CommandSet, parentStack []*global.CommandSet, found bool) {
	if command == "" || command == RootCLICommand {
		curCmdSet = rootCmd
		found = true
		return
	}
	if cmd, ok := rootCmd.ChildCommands[command]; ok {
		curCmdSet = cmd
		parentStack = []*global.CommandSet{rootCmd}
		found = true
		return
	}

	// Search in all subcommands
	for _, topCmd := range rootCmd.ChildCommands {
		if sub, ok := topCmd.ChildCommands[command]; ok {
			curCmdSet = sub
			parentStack = []*global.CommandSet{rootCmd, topCmd}
			found = true
			return
		}
	}
	return
}

// Flags registered under several names with one usage text
type helpOption struct {
	names      []string // "-t" before "--target"
	usage      string
	defaultVal string
}

// Merges short/long aliases (same usage text) into one line each, short names in their own column
func writeFlagOptions(w io.Writer, fs *flag.FlagSet) {
	byUsage := make(map[string]*helpOption)
	fs.VisitAll(func(arg *flag.Flag) {
		prefix := "--"
		if len(arg.Name) == 1 {
			prefix = "-"
		}

		opt, ok := byUsage[arg.Usage]
		if !ok {
			opt = &helpOption{usage: arg.Usage, defaultVal: arg.DefValue}
			byUsage[arg.Usage] = opt
		}
		opt.names = append(opt.names, prefix+arg.Name)
	})

	opts := slices.Collect(maps.Values(byUsage))
	for _, opt := range opts {
		slices.SortStableFunc(opt.names, func(a, b string) int { return len(a) - len(b) })
	}
	slices.SortFunc(opts, func(a, b *helpOption) int {
		return strings.Compare(strings.TrimLeft(strings.ToLower(a.names[0]), "-"), strings.TrimLeft(strings.ToLower(b.names[0]), "-"))
	})

	fmt.Fprintf(w, "%sOptions:\n", menuIndent)
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, opt := range opts {
		var short, long string
		if strings.HasPrefix(opt.names[0], "--") {
			long = strings.Join(opt.names, ", ")
		} else {
			short = opt.names[0] + ","
			long = strings.Join(opt.names[1:], ", ")
			if long == "" {
				short = opt.names[0]
			}
		}

		desc := opt.usage
		// Empty defaults are not worth printing
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}

		fmt.Fprintf(table, "%s%s\t%s\t%s\n", menuIndent, short, long, desc)
	}
	table.Flush()
}
