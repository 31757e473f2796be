package protocol

// Decoded flag byte
type Flags struct {
	Version  uint8 // 2 bits
	Reserved bool  // ignored on read semantics, never written
	Timecode bool  // 32-bit timecode follows the fixed header
	Storage  bool  // data comes from storage, not the payload
	Reply    bool  // answer to a query
	Query    bool  // request for Size bytes at Offset, no payload
	Push     bool  // display synchronization / end of burst
}

// Unpacks flag byte
func FlagsFromByte(b byte) (flags Flags) {
	flags = Flags{
		Version:  (b & flagVersionMask) >> flagVersionShift,
		Reserved: b&flagReserved != 0,
		Timecode: b&flagTimecode != 0,
		Storage:  b&flagStorage != 0,
		Reply:    b&flagReply != 0,
		Query:    b&flagQuery != 0,
		Push:     b&flagPush != 0,
	}
	return
}

// Packs flags into wire byte. The reserved bit is always written as zero.
func (flags Flags) Byte() (b byte) {
	b = (flags.Version << flagVersionShift) & flagVersionMask
	if flags.Timecode {
		b |= flagTimecode
	}
	if flags.Storage {
		b |= flagStorage
	}
	if flags.Reply {
		b |= flagReply
	}
	if flags.Query {
		b |= flagQuery
	}
	if flags.Push {
		b |= flagPush
	}
	return
}
