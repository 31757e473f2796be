package listener

import (
	"context"
	"ddpsink/internal/framebuffer"
	"ddpsink/internal/queue/mpmc"
	"ddpsink/internal/receiver/assembler"
	"ddpsink/internal/receiver/shared"
	"net"
	"sync"
	"sync/atomic"
)

type Config struct {
	Address      string
	Port         int
	DedupEnabled bool   // drop back-to-back repeats of the same non-zero sequence
	DrainMapPath string // pinned eBPF draining map, empty skips draining
}

type Instance struct {
	Namespace []string
	cfg       Config
	conn      *net.UDPConn
	buffer    *framebuffer.Buffer
	assembler *assembler.Instance
	commits   *mpmc.Queue[shared.CommitEvent] // nil when nobody consumes commits
	recent    map[string]recentDatagram       // last datagram per remote, dedup only
	inFlight  atomic.Uint64                   // datagrams between read and apply
	Metrics   *MetricStorage

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type recentDatagram struct {
	sequence uint8
	raw      []byte
}
