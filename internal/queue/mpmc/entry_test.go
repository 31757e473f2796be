package mpmc

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNew_InvalidCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint64
		wantErr  bool
	}{
		{"zero", 0, true},
		{"one", 1, true},
		{"not power of two", 6, true},
		{"two", 2, false},
		{"sixty four", 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[int](nil, tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueue_PushPopOrder(t *testing.T) {
	queue, err := New[int]([]string{"Test"}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i <= 4; i++ {
		if !queue.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if queue.Push(5) {
		t.Fatalf("expected push into full queue to fail")
	}
	if queue.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", queue.Len())
	}

	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		got, ok := queue.Pop(ctx)
		if !ok || got != i {
			t.Fatalf("pop = %d,%v want %d,true", got, ok, i)
		}
	}

	// Slots are reusable after wrap
	if !queue.Push(6) {
		t.Fatalf("push after drain failed")
	}
	if got, _ := queue.Pop(ctx); got != 6 {
		t.Fatalf("pop after wrap = %d, want 6", got)
	}
	if queue.Metrics.PushFull.Load() != 1 {
		t.Errorf("PushFull = %d, want 1", queue.Metrics.PushFull.Load())
	}
}

func TestQueue_PopWaitsAndCancels(t *testing.T) {
	queue, _ := New[string](nil, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := queue.Pop(ctx); ok {
		t.Fatalf("expected pop on empty queue to fail after cancel")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		queue.Push("late")
	}()
	got, ok := queue.Pop(context.Background())
	if !ok || got != "late" {
		t.Fatalf("pop = %q,%v want late,true", got, ok)
	}
}

func TestQueue_Concurrency(t *testing.T) {
	const producers = 4
	const perProducer = 2000

	queue, _ := New[int](nil, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var produced sync.WaitGroup
	for p := 0; p < producers; p++ {
		produced.Add(1)
		go func() {
			defer produced.Done()
			for i := 0; i < perProducer; i++ {
				for !queue.Push(1) {
					time.Sleep(time.Microsecond)
				}
			}
		}()
	}

	var mu sync.Mutex
	total := 0
	var consumed sync.WaitGroup
	for c := 0; c < 3; c++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for {
				v, ok := queue.Pop(ctx)
				if !ok {
					return
				}
				mu.Lock()
				total += v
				if total == producers*perProducer {
					cancel()
				}
				mu.Unlock()
			}
		}()
	}

	produced.Wait()
	consumed.Wait()

	if total != producers*perProducer {
		t.Fatalf("consumed %d, want %d", total, producers*perProducer)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue not empty: %d", queue.Len())
	}
}

func TestCollectMetrics(t *testing.T) {
	queue, _ := New[int]([]string{"Receiver"}, 2)
	queue.Push(1)
	queue.Push(2)
	queue.Push(3)

	values := map[string]any{}
	for _, metric := range queue.CollectMetrics(time.Second) {
		values[metric.Name] = metric.Value.Raw
	}
	if values["depth"] != uint64(2) {
		t.Errorf("depth = %v, want 2", values["depth"])
	}
	if values["push_full"] != uint64(1) {
		t.Errorf("push_full = %v, want 1", values["push_full"])
	}
}
