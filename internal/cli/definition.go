package cli

import "ddpsink/internal/global"

func DefineOptions() (cmdOpts *global.CommandSet) {
	// Root level
	root := &global.CommandSet{
		Description:     "DDP Pixel Sink (ddpsink)",
		FullDescription: "  Receives Distributed Display Protocol pixel data and serves the reconstructed buffer to local consumers",
		CommandName:     RootCLICommand,
		ChildCommands:   make(map[string]*global.CommandSet),
	}

	// Receiving
	root.ChildCommands["receive"] = &global.CommandSet{
		CommandName:     "receive",
		Description:     "Receive Pixel Data",
		FullDescription: "Listens for DDP datagrams, writes them into the pixel buffer and serves snapshots, streams and metrics over HTTP",
	}

	// Sending
	root.ChildCommands["send"] = &global.CommandSet{
		CommandName:     "send",
		Description:     "Send Test Pattern",
		FullDescription: "Streams an animated rainbow to a DDP receiver",
	}

	// Snapshot
	root.ChildCommands["snapshot"] = &global.CommandSet{
		CommandName:     "snapshot",
		Description:     "Show Pixel Buffer",
		FullDescription: "Fetches the current buffer from a running receiver and prints it as color swatches (terminal) or r,g,b lines",
	}

	// Setup
	root.ChildCommands["configure"] = &global.CommandSet{
		CommandName:     "configure",
		Description:     "Setup Actions",
		FullDescription: "Create a template receiver configuration",
	}

	// Version Info
	root.ChildCommands["version"] = &global.CommandSet{
		CommandName:     "version",
		Description:     "Show Version Information",
		FullDescription: "Display meta information about program",
	}

	cmdOpts = root
	return
}
