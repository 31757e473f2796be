package cli

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	swatchWidth         int = 2 // terminal columns per pixel
	defaultTermColumns  int = 80
	snapshotHTTPTimeout     = 5 * time.Second
)

func SnapshotMode(ctx context.Context, cliOpts *global.CommandSet, commandname string, args []string) {
	var baseURL string
	var forceLines bool

	defaultURL := "http://" + net.JoinHostPort(global.HTTPListenAddr, strconv.Itoa(global.HTTPListenPort))
	commandFlags := flag.NewFlagSet(commandname, flag.ExitOnError)
	SetGlobalArguments(commandFlags)
	commandFlags.StringVar(&baseURL, "u", defaultURL, "Base URL of the receiver consumer server")
	commandFlags.StringVar(&baseURL, "url", defaultURL, "Base URL of the receiver consumer server")
	commandFlags.BoolVar(&forceLines, "plain", false, "Print r,g,b lines even on a terminal")

	commandFlags.Usage = func() {
		PrintHelpMenu(commandFlags, commandname, cliOpts)
	}
	commandFlags.Parse(args[0:])
	logctx.SetLogLevel(ctx, global.Verbosity)

	raw, version, err := fetchSnapshot(ctx, baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stdoutFd := int(os.Stdout.Fd())
	if !forceLines && term.IsTerminal(stdoutFd) {
		columns, _, sizeErr := term.GetSize(stdoutFd)
		if sizeErr != nil || columns <= 0 {
			columns = defaultTermColumns
		}
		fmt.Printf("buffer version %s, %d pixels\n", version, len(raw)/3)
		renderSwatches(os.Stdout, raw, columns)
	} else {
		renderLines(os.Stdout, raw)
	}
}

// Downloads the packed RGB buffer
func fetchSnapshot(ctx context.Context, baseURL string) (raw []byte, version string, err error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotHTTPTimeout)
	defer cancel()

	url := strings.TrimSuffix(baseURL, "/") + global.RawSnapshotPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("invalid snapshot url: %w", err)
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed fetching snapshot: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("receiver returned %s for %s", resp.Status, url)
		return
	}

	raw, err = io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed reading snapshot body: %w", err)
		return
	}
	if len(raw)%3 != 0 {
		err = fmt.Errorf("snapshot length %d is not a whole number of pixels", len(raw))
		return
	}
	version = resp.Header.Get("X-Buffer-Version")
	return
}

// Truecolor blocks, wrapped to columns
func renderSwatches(w io.Writer, raw []byte, columns int) {
	perRow := max(columns/swatchWidth, 1)
	block := strings.Repeat(" ", swatchWidth)

	var out strings.Builder
	for i := 0; i+2 < len(raw); i += 3 {
		fmt.Fprintf(&out, "\x1b[48;2;%d;%d;%dm%s", raw[i], raw[i+1], raw[i+2], block)
		if (i/3+1)%perRow == 0 {
			out.WriteString("\x1b[0m\n")
		}
	}
	if pixels := len(raw) / 3; pixels%perRow != 0 {
		out.WriteString("\x1b[0m\n")
	}
	io.WriteString(w, out.String())
}

// One r,g,b line per pixel
func renderLines(w io.Writer, raw []byte) {
	var out strings.Builder
	for i := 0; i+2 < len(raw); i += 3 {
		fmt.Fprintf(&out, "%d,%d,%d\n", raw[i], raw[i+1], raw[i+2])
	}
	io.WriteString(w, out.String())
}
