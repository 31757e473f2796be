// HTTP server exposing the reconstructed pixel buffer and metric queries to local consumers
package server

import (
	"bytes"
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"ddpsink/internal/network"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Read in web static files at compile time
//
//go:embed static-files/index.html
var webFiles embed.FS

// Sets up HTTP routing and server configuration
func SetupListener(ctx context.Context, address string, port int, sources Sources, hub *StreamHub) (server *http.Server, err error) {
	requestMultiplexer := http.NewServeMux()

	helpPage, err := webFiles.ReadFile("static-files/index.html")
	if err != nil {
		err = fmt.Errorf("failed reading help html page from internal fs: %w", err)
		return
	}

	// Replace variables in html with globals
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@LISTEN_ADDR@@"), []byte(address))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@LISTEN_PORT@@"), []byte(strconv.Itoa(port)))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@SNAPSHOT_PATH@@"), []byte(global.SnapshotPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@RAW_SNAPSHOT_PATH@@"), []byte(global.RawSnapshotPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@STREAM_PATH@@"), []byte(global.StreamPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@DATA_PATH@@"), []byte(global.DataPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@DISCOVER_PATH@@"), []byte(global.DiscoveryPath))
	helpPage = bytes.ReplaceAll(helpPage, []byte("@@AGGREGATION_PATH@@"), []byte(global.AggregationPath))

	// Only GET is served anywhere
	get := func(handler func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
		return func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
			if clientRequest.Method != http.MethodGet {
				serverResponder.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			handler(serverResponder, clientRequest)
		}
	}

	// Root help page
	requestMultiplexer.HandleFunc("/", get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		if clientRequest.URL.Path != "/" {
			serverResponder.WriteHeader(http.StatusNotFound)
			return
		}
		serverResponder.Header().Set("Content-Type", "text/html; charset=utf-8")
		serverResponder.WriteHeader(http.StatusOK)
		serverResponder.Write(helpPage)
	}))

	requestMultiplexer.HandleFunc(global.SnapshotPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleSnapshot(ctx, sources.Buffer, serverResponder, clientRequest)
	}))
	requestMultiplexer.HandleFunc(global.RawSnapshotPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleRawSnapshot(sources.Buffer, serverResponder, clientRequest)
	}))
	if hub != nil {
		requestMultiplexer.HandleFunc(global.StreamPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
			hub.handleStream(ctx, serverResponder, clientRequest)
		}))
	}

	requestMultiplexer.HandleFunc(global.DiscoveryPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleDiscovery(ctx, sources.Discover, serverResponder, clientRequest)
	}))
	requestMultiplexer.HandleFunc(global.DataPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleData(ctx, sources.Search, serverResponder, clientRequest)
	}))
	requestMultiplexer.HandleFunc(global.AggregationPath, get(func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleAggregation(ctx, sources.Aggregate, serverResponder, clientRequest)
	}))

	server = &http.Server{
		Addr:         net.JoinHostPort(address, strconv.Itoa(port)),
		Handler:      requestMultiplexer,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Binds the server address (with port reuse) so bind errors surface at startup
func Listen(server *http.Server) (listener net.Listener, err error) {
	listener, err = network.ListenTCP(server.Addr)
	return
}

// Serves requests until the server is shut down
func Start(ctx context.Context, server *http.Server, listener net.Listener) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog, "Consumer server listening on http://%s/\n", listener.Addr())

	err := server.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Consumer server failed: %v\n", err)
	}
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(content); err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling response: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(http.StatusOK)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog, "%s\n", strings.TrimSpace(string(p)))
	return
}
