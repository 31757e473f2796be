package protocol

import "fmt"

type ColorType uint8

const (
	ColorUndefined ColorType = iota
	ColorRGB
	ColorHSL
	ColorRGBW
	ColorGrayscale
	ColorReserved5
	ColorReserved6
	ColorReserved7
)

func (color ColorType) String() (name string) {
	switch color {
	case ColorUndefined:
		name = "undefined"
	case ColorRGB:
		name = "rgb"
	case ColorHSL:
		name = "hsl"
	case ColorRGBW:
		name = "rgbw"
	case ColorGrayscale:
		name = "grayscale"
	default:
		name = fmt.Sprintf("reserved(%d)", uint8(color))
	}
	return
}

// Pixel data descriptor carried in byte 2
type DataType struct {
	Custom   bool
	Reserved bool
	Color    ColorType // 3 bits
	SizeCode uint8     // 3 bits, see BitsPerChannel
}

// Decodes data type byte. A zero byte means no descriptor was sent.
func DataTypeFromByte(b byte) (dataType *DataType) {
	if b == 0 {
		return
	}
	dataType = &DataType{
		Custom:   b&dataTypeCustom != 0,
		Reserved: b&dataTypeReserved != 0,
		Color:    ColorType((b & dataTypeColorMask) >> dataTypeColorShift),
		SizeCode: b & dataTypeSizeMask,
	}
	return
}

// Packs descriptor into wire byte (nil descriptor is 0)
func (dataType *DataType) Byte() (b byte) {
	if dataType == nil {
		return
	}
	if dataType.Custom {
		b |= dataTypeCustom
	}
	if dataType.Reserved {
		b |= dataTypeReserved
	}
	b |= (byte(dataType.Color) << dataTypeColorShift) & dataTypeColorMask
	b |= dataType.SizeCode & dataTypeSizeMask
	return
}

// Bits per channel element (R or G or B), 0 when undefined
func (dataType *DataType) BitsPerChannel() (bits int) {
	if dataType == nil {
		return
	}
	bits = sizeCodeBits[dataType.SizeCode&dataTypeSizeMask]
	return
}

func (dataType *DataType) String() string {
	if dataType == nil {
		return "none"
	}
	return fmt.Sprintf("%s/%dbit", dataType.Color, dataType.BitsPerChannel())
}
