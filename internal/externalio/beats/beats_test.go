package beats

import (
	"context"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/shared"
	"ddpsink/pkg/protocol"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-lumber/server"
)

type fakeSink struct {
	mu      sync.Mutex
	events  []interface{}
	failing bool
	closed  int
}

func (sink *fakeSink) Send(data []interface{}) (int, error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.failing {
		return 0, errors.New("connection reset")
	}
	sink.events = append(sink.events, data...)
	return len(data), nil
}

func (sink *fakeSink) Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.closed++
	return nil
}

func (sink *fakeSink) count() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return len(sink.events)
}

func sampleEvent() shared.CommitEvent {
	return shared.CommitEvent{
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		RemoteIP:   "192.0.2.7",
		Target:     protocol.TargetDefault,
		Sequence:   3,
		Offset:     6,
		Size:       9,
		Timecode:   0xDEADBEEF,
		HasTC:      true,
		StartIndex: 2,
		Pixels:     3,
		BufferLen:  5,
		Version:    4,
	}
}

func TestNewOutput_EmptyEndpoint(t *testing.T) {
	module, err := NewOutput(nil, "", "id")
	if err != nil || module != nil {
		t.Fatalf("expected nil module and error, got %v %v", module, err)
	}

	// Nil module is a no-op
	sent, err := module.Write(context.Background(), sampleEvent())
	if sent != 0 || err != nil {
		t.Fatalf("nil module write: %d %v", sent, err)
	}
	if err := module.Shutdown(); err != nil {
		t.Fatalf("nil module shutdown: %v", err)
	}
}

func TestNewOutput_DialFailure(t *testing.T) {
	sink := &fakeSink{}
	dials := 0
	dial := func(string) (eventSink, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("refused")
		}
		return sink, nil
	}

	module, err := newOutput(nil, "127.0.0.1:1", "id", dial)
	if err == nil {
		t.Fatalf("expected dial error")
	}
	if module == nil {
		t.Fatalf("expected module despite dial error")
	}

	// First write redials
	sent, err := module.Write(context.Background(), sampleEvent())
	if err != nil || sent != 1 {
		t.Fatalf("Write after failed startup dial: %d %v", sent, err)
	}
	if dials != 2 || len(sink.events) != 1 {
		t.Errorf("dials=%d events=%d", dials, len(sink.events))
	}
}

func TestWrite_Document(t *testing.T) {
	sink := &fakeSink{}
	module, err := newOutput([]string{"Receiver"}, "beats:5044", "instance-1",
		func(string) (eventSink, error) { return sink, nil })
	if err != nil {
		t.Fatalf("newOutput: %v", err)
	}

	sent, err := module.Write(context.Background(), sampleEvent())
	if err != nil || sent != 1 {
		t.Fatalf("Write: %d %v", sent, err)
	}

	doc := sink.events[0].(map[string]interface{})
	if doc["@timestamp"] != sampleEvent().Timestamp {
		t.Errorf("timestamp=%v", doc["@timestamp"])
	}
	agent := doc["agent"].(map[string]interface{})
	if agent["id"] != "instance-1" {
		t.Errorf("agent id=%v", agent["id"])
	}
	ddp := doc["ddp"].(map[string]interface{})
	tests := []struct {
		key  string
		want interface{}
	}{
		{"target", protocol.TargetDefault.String()},
		{"sequence", uint8(3)},
		{"offset", uint32(6)},
		{"size", uint16(9)},
		{"start_index", 2},
		{"pixels", 3},
		{"timecode", uint32(0xDEADBEEF)},
	}
	for _, tt := range tests {
		if ddp[tt.key] != tt.want {
			t.Errorf("ddp[%s]=%v want=%v", tt.key, ddp[tt.key], tt.want)
		}
	}

	noTC := sampleEvent()
	noTC.HasTC = false
	module.Write(context.Background(), noTC)
	if _, present := sink.events[1].(map[string]interface{})["ddp"].(map[string]interface{})["timecode"]; present {
		t.Errorf("timecode present without timecode flag")
	}
}

func TestWrite_ReconnectAfterFailure(t *testing.T) {
	first := &fakeSink{failing: true}
	second := &fakeSink{}
	dials := 0
	dial := func(string) (eventSink, error) {
		dials++
		if dials == 1 {
			return first, nil
		}
		return second, nil
	}

	module, err := newOutput(nil, "beats:5044", "id", dial)
	if err != nil {
		t.Fatalf("newOutput: %v", err)
	}

	_, err = module.Write(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected send error")
	}
	if first.closed != 1 {
		t.Errorf("failed sink not closed")
	}

	// Within the redial interval no dial happens
	_, err = module.Write(context.Background(), sampleEvent())
	if err == nil || dials != 1 {
		t.Fatalf("expected backoff error without redial, dials=%d err=%v", dials, err)
	}

	module.Metrics.LastSendTime.Store(time.Now().Add(-2 * redialInterval).UnixNano())
	sent, err := module.Write(context.Background(), sampleEvent())
	if err != nil || sent != 1 || dials != 2 {
		t.Fatalf("expected reconnect, sent=%d dials=%d err=%v", sent, dials, err)
	}
	if module.Metrics.Reconnects.Load() != 1 {
		t.Errorf("reconnects=%d", module.Metrics.Reconnects.Load())
	}
}

func TestRun_ConsumesQueue(t *testing.T) {
	sink := &fakeSink{}
	module, _ := newOutput(nil, "beats:5044", "id", func(string) (eventSink, error) { return sink, nil })

	queue, err := mpmc.New[shared.CommitEvent](nil, 8)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		module.Run(ctx, queue)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		queue.Push(sampleEvent())
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d events exported", sink.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	collected := module.CollectMetrics(time.Second)
	for _, metric := range collected {
		if metric.Name == "events_sent" && metric.Value.Raw.(uint64) != 5 {
			t.Errorf("events_sent=%v", metric.Value.Raw)
		}
		if metric.Name == "connected" && metric.Value.Raw.(uint64) != 1 {
			t.Errorf("connected=%v", metric.Value.Raw)
		}
	}

	if err := module.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("sink closed %d times", sink.closed)
	}
}

func TestNewOutput_LumberjackServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, err := server.NewWithListener(listener, server.V2(true))
	if err != nil {
		t.Fatalf("lumberjack server: %v", err)
	}
	defer srv.Close()

	// Server must ACK for the synchronous client to return
	received := make(chan map[string]interface{}, 1)
	go func() {
		batch := srv.Receive()
		if batch == nil {
			return
		}
		batch.ACK()
		if len(batch.Events) > 0 {
			received <- batch.Events[0].(map[string]interface{})
		}
	}()

	module, err := NewOutput(nil, listener.Addr().String(), "instance-9")
	if err != nil {
		t.Fatalf("NewOutput: %v", err)
	}
	defer module.Shutdown()

	sent, err := module.Write(context.Background(), sampleEvent())
	if err != nil || sent != 1 {
		t.Fatalf("Write: %d %v", sent, err)
	}

	select {
	case doc := <-received:
		source := doc["source"].(map[string]interface{})
		if source["ip"] != "192.0.2.7" {
			t.Errorf("source ip=%v", source["ip"])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no batch received")
	}
}
