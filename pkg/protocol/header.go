package protocol

import (
	"encoding/binary"
	"fmt"
)

// Fixed 10-byte header
type Header struct {
	Flags    Flags
	Sequence uint8     // 0-15, 0 = unused
	DataType *DataType // nil when absent
	Target   TargetID
	Offset   uint32 // byte offset into target space
	Size     uint16 // payload byte length
}

// Decodes the fixed header fields. Bytes past the fixed header are not inspected.
func DecodeHeader(raw []byte) (header Header, err error) {
	if len(raw) < HeaderLen {
		err = fmt.Errorf("%w: got %d bytes, need %d", ErrHeaderTooShort, len(raw), HeaderLen)
		return
	}

	header = Header{
		Flags:    FlagsFromByte(raw[0]),
		Sequence: raw[1] & sequenceMask,
		DataType: DataTypeFromByte(raw[2]),
		Target:   TargetID(raw[3]),
		Offset:   binary.BigEndian.Uint32(raw[4:8]),
		Size:     binary.BigEndian.Uint16(raw[8:10]),
	}
	return
}

// Encodes the fixed header. The timecode itself is written by EncodePacket.
func EncodeHeader(header Header) (raw []byte) {
	raw = make([]byte, HeaderLen)
	raw[0] = header.Flags.Byte()
	raw[1] = header.Sequence & sequenceMask
	raw[2] = header.DataType.Byte()
	raw[3] = byte(header.Target)
	binary.BigEndian.PutUint32(raw[4:8], header.Offset)
	binary.BigEndian.PutUint16(raw[8:10], header.Size)
	return
}

// Number of wire bytes preceding the payload
func (header Header) Len() (length int) {
	length = HeaderLen
	if header.Flags.Timecode {
		length = HeaderLenTimecode
	}
	return
}
