package sender

import (
	"ddpsink/pkg/protocol"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	Target   protocol.TargetID
	DataType *protocol.DataType // nil leaves the header byte unset
	Timecode bool               // attach a 16.16 fixed point seconds timecode to every packet

	// Largest payload per datagram, 0 derives it from the path MTU (never above protocol.MaxDataLen)
	MaxPayload int
}

// Writes pixel frames to one DDP receiver
type Instance struct {
	Namespace []string
	cfg       Config
	conn      *net.UDPConn
	chunkSize int

	mu       sync.Mutex
	sequence uint8
	epoch    time.Time

	Metrics *MetricStorage
}

type MetricStorage struct {
	TotalPackets   atomic.Uint64
	TotalFrames    atomic.Uint64
	SumPacketBytes atomic.Uint64
	MaxPacketBytes atomic.Uint64
	SendErrors     atomic.Uint64
}
