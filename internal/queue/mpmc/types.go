package mpmc

import "sync/atomic"

type cell[T any] struct {
	seq  atomic.Uint64
	data T
}

// Fixed capacity ring. Producers never block: a full queue rejects the push.
type Queue[T any] struct {
	Namespace []string
	Size      int
	mask      uint64
	buf       []cell[T]
	head      atomic.Uint64
	tail      atomic.Uint64
	notEmpty  chan struct{}
	Metrics   *MetricStorage
}
