package cli

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/sender"
	"ddpsink/pkg/protocol"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

type sendOptions struct {
	destination string
	pixels      int
	fps         float64
	frames      int
	step        float64
	timecode    bool
	maxPayload  int
}

func SendMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) {
	var opts sendOptions

	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	defaultDestination := net.JoinHostPort("127.0.0.1", strconv.Itoa(global.DefaultReceiverPort))
	commandFlags.StringVar(&opts.destination, "t", defaultDestination, "Receiver address (host:port)")
	commandFlags.StringVar(&opts.destination, "target", defaultDestination, "Receiver address (host:port)")
	commandFlags.IntVar(&opts.pixels, "n", 128, "Number of pixels in each frame")
	commandFlags.IntVar(&opts.pixels, "pixels", 128, "Number of pixels in each frame")
	commandFlags.Float64Var(&opts.fps, "fps", 40, "Frames per second")
	commandFlags.IntVar(&opts.frames, "frames", 0, "Stop after this many frames (0 runs until interrupted)")
	commandFlags.Float64Var(&opts.step, "step", 2, "Hue rotation per frame in degrees")
	commandFlags.BoolVar(&opts.timecode, "timecode", false, "Attach a timecode to every packet")
	commandFlags.IntVar(&opts.maxPayload, "max-payload", 0, "Largest pixel payload per datagram in bytes (0 derives it from the path MTU)")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])
	logctx.SetLogLevel(ctx, global.Verbosity)

	if opts.pixels <= 0 || opts.fps <= 0 || opts.frames < 0 {
		fmt.Fprintf(os.Stderr, "Error: pixels and fps must be positive, frames must not be negative\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := runSender(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Streams the rainbow until the frame count is reached or ctx ends
func runSender(ctx context.Context, opts sendOptions) (err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSSend)

	out, err := sender.New([]string{global.NSCLI}, opts.destination, sender.Config{
		Target:     protocol.TargetDefault,
		Timecode:   opts.timecode,
		MaxPayload: opts.maxPayload,
	})
	if err != nil {
		return
	}
	defer out.Close()

	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Sending %d pixel rainbow to %s at %.1f fps (%d bytes per datagram)\n",
		opts.pixels, opts.destination, opts.fps, out.ChunkSize())

	ticker := time.NewTicker(time.Duration(float64(time.Second) / opts.fps))
	defer ticker.Stop()

	offset := 0.0
	for sent := 0; opts.frames == 0 || sent < opts.frames; sent++ {
		frame := sender.Rainbow(opts.pixels, offset)

		packets, sendErr := out.Write(frame)
		if sendErr != nil {
			// Receiver not up yet is normal for a test sender
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog, "%v\n", sendErr)
		} else {
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Sent frame %d in %d packets\n", sent, packets)
		}
		offset = math.Mod(offset+opts.step, 360)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	return
}
