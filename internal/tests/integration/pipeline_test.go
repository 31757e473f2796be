// Integration tests for the send, receive and consume pipeline
package integration

import (
	"bytes"
	"ddpsink/internal/global"
	"ddpsink/internal/receiver"
	"ddpsink/internal/sender"
	"ddpsink/pkg/protocol"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-lumber/server"
	"github.com/gorilla/websocket"
)

// Sends rainbow frames larger than one datagram and checks every consumer view of the buffer
func TestSendReceivePipeline(t *testing.T) {
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			if !strings.Contains(fmt.Sprintf("%v", fatalError), "test timed out after") {
				t.Fatalf("Error: panic in integration test: %v\n%s\n", fatalError, stack)
			}
		}
	}()

	ctx, daemon, baseURL := startReceiver(t, nil)

	dest := daemon.ListenAddr().String()
	ddpSender, err := sender.New([]string{global.NSTest}, dest, sender.Config{Target: protocol.TargetDefault})
	if err != nil {
		t.Fatalf("failed to create sender towards %s: %v", dest, err)
	}
	defer ddpSender.Close()

	const pixelCount int = 1200 // several datagrams per frame
	const frameCount int = 5

	var lastFrame []byte
	var totalPackets int
	for frame := range frameCount {
		lastFrame = sender.Rainbow(pixelCount, float64(frame*30))

		packets, err := ddpSender.Write(lastFrame)
		if err != nil {
			t.Fatalf("failed to send frame %d: %v", frame, err)
		}
		if wantPackets := (len(lastFrame) + ddpSender.ChunkSize() - 1) / ddpSender.ChunkSize(); packets != wantPackets {
			t.Fatalf("frame %d used %d packets, expected %d", frame, packets, wantPackets)
		}
		totalPackets += packets

		// Pace frames so the loopback socket buffer never overflows
		time.Sleep(10 * time.Millisecond)
	}

	// Last frame fully applied
	settled := waitFor(5*time.Second, func() bool {
		raw, _ := daemon.Buffer().SnapshotRGB()
		return bytes.Equal(raw, lastFrame)
	})
	if !settled {
		raw, version := daemon.Buffer().SnapshotRGB()
		t.Fatalf("buffer never matched last frame: len=%d version=%d", len(raw)/3, version)
	}
	if daemon.Buffer().Version() != uint64(totalPackets) {
		t.Errorf("expected buffer version %d (one per datagram), got %d", totalPackets, daemon.Buffer().Version())
	}

	// Raw snapshot
	raw, header, err := httpGet(baseURL + global.RawSnapshotPath)
	if err != nil {
		t.Fatalf("raw snapshot: %v", err)
	}
	if !bytes.Equal(raw, lastFrame) {
		t.Errorf("raw snapshot differs from last frame (got %d bytes, expected %d)", len(raw), len(lastFrame))
	}
	if header.Get("X-Buffer-Version") != strconv.Itoa(totalPackets) {
		t.Errorf("expected X-Buffer-Version %d, got %q", totalPackets, header.Get("X-Buffer-Version"))
	}

	// JSON snapshot
	var snapshot struct {
		Version uint64     `json:"version"`
		Length  int        `json:"length"`
		Pixels  [][3]uint8 `json:"pixels"`
	}
	err = httpGetJSON(baseURL+global.SnapshotPath, &snapshot)
	if err != nil {
		t.Fatalf("json snapshot: %v", err)
	}
	if snapshot.Length != pixelCount || len(snapshot.Pixels) != pixelCount {
		t.Fatalf("expected %d pixels in json snapshot, got length=%d pixels=%d", pixelCount, snapshot.Length, len(snapshot.Pixels))
	}
	for _, index := range []int{0, pixelCount / 2, pixelCount - 1} {
		want := [3]uint8{lastFrame[index*3], lastFrame[index*3+1], lastFrame[index*3+2]}
		if snapshot.Pixels[index] != want {
			t.Errorf("pixel %d: expected %v, got %v", index, want, snapshot.Pixels[index])
		}
	}

	// Metric counts line up with what was sent
	listenerNS := []string{global.NSRecv, global.NSListen}
	var applied uint64
	counted := waitFor(3*time.Second, func() bool {
		applied, err = sumMetric(baseURL, listenerNS, "applied_packets_total")
		return err == nil && applied == uint64(totalPackets)
	})
	if !counted {
		t.Errorf("expected %d applied packets in metrics, got %d (err=%v)", totalPackets, applied, err)
	}

	pushes, err := sumMetric(baseURL, listenerNS, "push_total")
	if err != nil {
		t.Fatalf("push metric: %v", err)
	}
	if pushes != uint64(frameCount) {
		t.Errorf("expected %d pushed frames in metrics, got %d", frameCount, pushes)
	}

	if logs, found := filterLogBuffer(ctx, "", global.NSListen, global.ErrorLog); found {
		t.Errorf("unexpected listener errors:\n%s", logs)
	}
}

// Stream subscribers see the committed frame after a multi-datagram write
func TestStreamPipeline(t *testing.T) {
	_, daemon, baseURL := startReceiver(t, nil)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + global.StreamPath
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to subscribe to %s: %v", wsURL, err)
	}
	defer conn.Close()

	// Initial (empty) state
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("initial stream frame: %v", err)
	}
	if len(first) != 0 {
		t.Fatalf("expected empty initial frame, got %d bytes", len(first))
	}

	ddpSender, err := sender.New([]string{global.NSTest}, daemon.ListenAddr().String(), sender.Config{MaxPayload: 300})
	if err != nil {
		t.Fatalf("failed to create sender: %v", err)
	}
	defer ddpSender.Close()

	frame := sender.Rainbow(250, 0)
	_, err = ddpSender.Write(frame)
	if err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	// Partial frames are never broadcast, the next message is the whole pushed frame
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	msgType, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("stream never delivered the sent frame: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("expected binary stream message, got type %d", msgType)
	}
	if !bytes.Equal(message, frame) {
		t.Fatalf("stream delivered %d bytes, expected the complete %d byte frame", len(message), len(frame))
	}

	if daemon.Stream.Subscribers() != 1 {
		t.Errorf("expected 1 stream subscriber, got %d", daemon.Stream.Subscribers())
	}
}

// Pushed frames are exported to a beats server
func TestBeatsExportPipeline(t *testing.T) {
	beatsListener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen for beats: %v", err)
	}
	beatsServer, err := server.NewWithListener(beatsListener, server.V2(true))
	if err != nil {
		t.Fatalf("failed to start beats server: %v", err)
	}
	defer beatsServer.Close()

	received := make(chan map[string]interface{}, 16)
	go func() {
		for {
			batch := beatsServer.Receive()
			if batch == nil {
				return
			}
			for _, event := range batch.Events {
				if doc, ok := event.(map[string]interface{}); ok {
					received <- doc
				}
			}
			batch.ACK()
		}
	}()

	_, daemon, _ := startReceiver(t, func(cfg *receiver.Config) {
		cfg.ServerEnabled = false
		cfg.BeatsEndpoint = beatsListener.Addr().String()
		cfg.CommitQueueSize = 64
	})

	ddpSender, err := sender.New([]string{global.NSTest}, daemon.ListenAddr().String(), sender.Config{Target: protocol.TargetDefault})
	if err != nil {
		t.Fatalf("failed to create sender: %v", err)
	}
	defer ddpSender.Close()

	_, err = ddpSender.WriteAt(30, sender.Rainbow(8, 0))
	if err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	select {
	case doc := <-received:
		agent := doc["agent"].(map[string]interface{})
		if agent["id"] != daemon.InstanceID.String() {
			t.Errorf("expected agent id %s, got %v", daemon.InstanceID, agent["id"])
		}

		ddp := doc["ddp"].(map[string]interface{})
		if ddp["target"] != protocol.TargetDefault.String() {
			t.Errorf("expected target %q, got %v", protocol.TargetDefault.String(), ddp["target"])
		}
		// Numbers decode as float64 from the wire
		if ddp["start_index"] != float64(10) || ddp["pixels"] != float64(8) {
			t.Errorf("expected 8 pixels at index 10, got %v at %v", ddp["pixels"], ddp["start_index"])
		}

		source := doc["source"].(map[string]interface{})
		if source["ip"] != "127.0.0.1" {
			t.Errorf("expected source ip 127.0.0.1, got %v", source["ip"])
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no commit event reached the beats server")
	}
}
