package protocol

const (
	DefaultPort int = 4048

	// Fixed header and optional timecode extension
	HeaderLen         int = 10
	TimecodeLen       int = 4
	HeaderLenTimecode int = HeaderLen + TimecodeLen

	// Largest payload a sender should place in one datagram (480 RGB pixels)
	MaxDataLen int = 480 * 3

	// Version currently implemented
	Version1 uint8 = 1
)

// Flag byte (byte 0), MSB to LSB: VV R T S R Q P
const (
	flagVersionMask  byte = 0xC0
	flagVersionShift      = 6
	flagReserved     byte = 0x20
	flagTimecode     byte = 0x10
	flagStorage      byte = 0x08
	flagReply        byte = 0x04
	flagQuery        byte = 0x02
	flagPush         byte = 0x01
)

// Data type byte (byte 2): C R TTT SSS
const (
	dataTypeCustom     byte = 0x80
	dataTypeReserved   byte = 0x40
	dataTypeColorMask  byte = 0x38
	dataTypeColorShift      = 3
	dataTypeSizeMask   byte = 0x07

	sequenceMask byte = 0x0F
)

// Bits per channel element indexed by the 3-bit size code
var sizeCodeBits = [8]int{0, 1, 4, 8, 16, 24, 32, 0}
