// Types passed between receiver components
package shared

import (
	"ddpsink/pkg/protocol"
	"time"
)

// Emitted by the listener after a push-flagged packet has been applied to the buffer
type CommitEvent struct {
	Timestamp  time.Time
	RemoteIP   string
	Target     protocol.TargetID
	Sequence   uint8
	Offset     uint32
	Size       uint16
	Timecode   uint32
	HasTC      bool
	StartIndex int
	Pixels     int
	BufferLen  int
	Version    uint64
}
