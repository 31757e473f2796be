package integration

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/receiver"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

// Picks an unused loopback port for the given network ("udp" or "tcp")
func freePort(t *testing.T, network string) (port int) {
	t.Helper()

	switch network {
	case "udp":
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
		if err != nil {
			t.Fatalf("failed to probe free udp port: %v", err)
		}
		port = conn.LocalAddr().(*net.UDPAddr).Port
		conn.Close()
	default:
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to probe free tcp port: %v", err)
		}
		port = listener.Addr().(*net.TCPAddr).Port
		listener.Close()
	}
	return
}

// Starts a loopback receiver with the consumer server enabled, logging to an in-memory queue
func startReceiver(t *testing.T, mutate func(cfg *receiver.Config)) (ctx context.Context, daemon *receiver.Daemon, baseURL string) {
	t.Helper()

	logVerbosity := global.VerbosityStandard
	globalCtx, globalCancel := context.WithCancel(context.Background())
	ctx = logctx.New(globalCtx, "global", logVerbosity, globalCtx.Done())

	cfg := receiver.Config{
		ListenIP:                 "127.0.0.1",
		ListenPort:               freePort(t, "udp"),
		ServerEnabled:            true,
		ServerAddress:            "127.0.0.1",
		ServerPort:               freePort(t, "tcp"),
		StreamInterval:           5 * time.Millisecond,
		MaxPixels:                4096,
		MetricCollectionInterval: 50 * time.Millisecond, // Fast collection just for test data
		MetricMaxAge:             time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	daemon = receiver.NewDaemon(cfg)
	err := daemon.Start(ctx)
	if err != nil {
		globalCancel()
		t.Fatalf("failed to start receiver daemon: %v", err)
	}

	runDone := make(chan struct{})
	go func() {
		daemon.Run()
		close(runDone)
	}()

	t.Cleanup(func() {
		daemon.Shutdown()
		select {
		case <-runDone:
		case <-time.After(global.ReceiveShutdownTimeout):
			t.Errorf("receiver did not stop within %s", global.ReceiveShutdownTimeout)
		}
		globalCancel()
	})

	baseURL = "http://" + net.JoinHostPort(cfg.ServerAddress, strconv.Itoa(cfg.ServerPort))
	return
}

// Polls condition until it holds or the timeout expires
func waitFor(timeout time.Duration, condition func() bool) (ok bool) {
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			ok = true
			return
		}
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// GETs url and returns the full body, failing on non-200
func httpGet(url string) (body []byte, header http.Header, err error) {
	resp, err := http.Get(url)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	header = resp.Header
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("GET %s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return
}

// GETs url and decodes the JSON body into out
func httpGetJSON(url string, out any) (err error) {
	body, _, err := httpGet(url)
	if err != nil {
		return
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		err = fmt.Errorf("invalid JSON from %s: %w", url, err)
	}
	return
}

// Uses logger in context to search logger buffer for events matching filter (must match all 3 filters if filters are not empty)
func filterLogBuffer(ctx context.Context, searchText, searchTag, searchSeverity string) (matches string, found bool) {
	logger := logctx.GetLogger(ctx)
	if logger == nil {
		return
	}

	lines := logger.GetFormattedLogLines()

	bracketRe := regexp.MustCompile(`\[[^\]]*\]`)
	var re *regexp.Regexp
	if searchTag != "" {
		re = regexp.MustCompile(regexp.QuoteMeta(searchTag))
	}

	var foundLines []string
	for _, line := range lines {
		// Filter by tag if searchTag is non-empty
		if re != nil {
			foundTag := false
			for _, b := range bracketRe.FindAllString(line, -1) {
				if re.MatchString(b) {
					foundTag = true
					break
				}
			}
			if !foundTag {
				continue
			}
		}

		// Filter by severity if searchSeverity is non-empty
		if searchSeverity != "" && !strings.Contains(line, "["+searchSeverity+"]") {
			continue
		}

		// Filter by text if searchText is non-empty
		if searchText != "" && !strings.Contains(line, searchText) {
			continue
		}

		foundLines = append(foundLines, line)
		found = true
	}

	matches = strings.Join(foundLines, "")
	return
}

// Sums uint metric values reported by the daemon's data endpoint
func sumMetric(baseURL string, namespace []string, name string) (total uint64, err error) {
	url := baseURL + global.DataPath + strings.Join(namespace, "/") + "?starttime=-1m&name=" + name

	var results []struct {
		Value struct {
			Raw string `json:"raw"`
		} `json:"value"`
	}
	body, _, err := httpGet(url)
	if err != nil {
		return
	}
	// No samples yet comes back as an error object
	if !strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		return
	}
	err = json.Unmarshal(body, &results)
	if err != nil {
		err = fmt.Errorf("invalid metric results from %s: %w", url, err)
		return
	}

	for _, result := range results {
		var value uint64
		value, err = strconv.ParseUint(result.Value.Raw, 10, 64)
		if err != nil {
			err = fmt.Errorf("metric %s value %q is not an unsigned count: %w", name, result.Value.Raw, err)
			return
		}
		total += value
	}
	return
}
