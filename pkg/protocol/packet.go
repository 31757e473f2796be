package protocol

import (
	"encoding/binary"
	"fmt"
)

// One decoded datagram. Immutable once produced.
type Packet struct {
	Header
	Timecode uint32 // valid only when Flags.Timecode is set
	Payload  []byte
}

// Decodes a full datagram. Payload length is not checked against Size.
func DecodePacket(raw []byte) (packet Packet, err error) {
	packet.Header, err = DecodeHeader(raw)
	if err != nil {
		return
	}

	if packet.Flags.Timecode {
		if len(raw) < HeaderLenTimecode {
			err = fmt.Errorf("%w: got %d bytes, need %d", ErrTimecodeTruncated, len(raw), HeaderLenTimecode)
			return
		}
		packet.Timecode = binary.BigEndian.Uint32(raw[HeaderLen:HeaderLenTimecode])
	}

	// Copy so the packet does not alias the caller's receive buffer
	packet.Payload = append([]byte{}, raw[packet.Len():]...)
	return
}

// Encodes header, optional timecode and payload into one datagram
func EncodePacket(packet Packet) (raw []byte) {
	raw = make([]byte, 0, packet.Len()+len(packet.Payload))
	raw = append(raw, EncodeHeader(packet.Header)...)
	if packet.Flags.Timecode {
		raw = binary.BigEndian.AppendUint32(raw, packet.Timecode)
	}
	raw = append(raw, packet.Payload...)
	return
}

// Short description for logs
func (packet Packet) Summary() string {
	return fmt.Sprintf("target=%s seq=%d type=%s offset=%d size=%d payload=%d push=%t",
		packet.Target, packet.Sequence, packet.DataType, packet.Offset, packet.Size, len(packet.Payload), packet.Flags.Push)
}
