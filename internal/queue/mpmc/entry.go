// Multi-producer Multi-Consumer lock-free ring buffer queue with power-of-two capacity
package mpmc

import (
	"context"
	"ddpsink/internal/global"
	"fmt"
	"runtime"
)

// Creates a new queue
func New[T any](namespace []string, capacity uint64) (new *Queue[T], err error) {
	if capacity < 2 {
		err = fmt.Errorf("capacity must be greater than or equal to 2")
		return
	}
	if (capacity & (capacity - 1)) != 0 {
		err = fmt.Errorf("capacity must be a power of two")
		return
	}

	buf := make([]cell[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		buf[i].seq.Store(i)
	}

	new = &Queue[T]{
		Namespace: append(append([]string{}, namespace...), global.NSQueue),
		Size:      int(capacity),
		mask:      capacity - 1,
		buf:       buf,
		notEmpty:  make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}
	return
}

// Attempts to write an element (non success = queue full)
func (queue *Queue[T]) Push(value T) (success bool) {
	queue.Metrics.PushAttempts.Add(1)

	var pos uint64
	var slot *cell[T]
	for {
		pos = queue.tail.Load()
		slot = &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()

		if seq == pos {
			if queue.tail.CompareAndSwap(pos, pos+1) {
				break
			}
			queue.Metrics.PushCASRetries.Add(1)
		} else if seq < pos {
			queue.Metrics.PushFull.Add(1)
			return
		} else {
			runtime.Gosched()
		}
	}

	slot.data = value
	slot.seq.Store(pos + 1)
	queue.Metrics.Depth.Add(1)
	queue.Metrics.PushSuccess.Add(1)

	// Wake a blocked consumer without waiting
	select {
	case queue.notEmpty <- struct{}{}:
	default:
	}

	success = true
	return
}

// Reads an element, waiting while the queue is empty. Returns false once ctx is done.
func (queue *Queue[T]) Pop(ctx context.Context) (out T, success bool) {
	for {
		queue.Metrics.PopAttempts.Add(1)

		pos := queue.head.Load()
		slot := &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()
		readySeq := pos + 1

		if seq == readySeq {
			if queue.head.CompareAndSwap(pos, pos+1) {
				out = slot.data
				var zero T
				slot.data = zero
				slot.seq.Store(pos + queue.mask + 1)

				queue.Metrics.Depth.Add(^uint64(0))
				queue.Metrics.PopSuccess.Add(1)
				success = true
				return
			}
			queue.Metrics.PopCASRetries.Add(1)
			continue
		}

		if seq < readySeq {
			select {
			case <-ctx.Done():
				return
			case <-queue.notEmpty:
			}
			continue
		}

		// Another consumer is ahead, retry
		runtime.Gosched()
	}
}

// Number of queued elements
func (queue *Queue[T]) Len() int {
	return int(queue.Metrics.Depth.Load())
}
