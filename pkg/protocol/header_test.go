package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestFlagsByte(t *testing.T) {
	tests := []struct {
		name     string
		flags    Flags
		expected byte
	}{
		{"version only", Flags{Version: 1}, 0x40},
		{"push", Flags{Version: 1, Push: true}, 0x41},
		{"query", Flags{Version: 1, Query: true}, 0x42},
		{"reply", Flags{Version: 1, Reply: true}, 0x44},
		{"storage", Flags{Version: 1, Storage: true}, 0x48},
		{"timecode", Flags{Version: 1, Timecode: true}, 0x50},
		{"timecode and push", Flags{Version: 1, Timecode: true, Push: true}, 0x51},
		{"all flags", Flags{Version: 1, Timecode: true, Storage: true, Reply: true, Query: true, Push: true}, 0x5F},
		{"reserved never written", Flags{Version: 1, Reserved: true}, 0x40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.Byte(); got != tt.expected {
				t.Errorf("Byte() = 0x%02X, expected 0x%02X", got, tt.expected)
			}
		})
	}
}

func TestFlagsFromByte_Reserved(t *testing.T) {
	flags := FlagsFromByte(0x61)
	if !flags.Reserved || flags.Version != 1 || !flags.Push {
		t.Errorf("unexpected flags decoded from 0x61: %+v", flags)
	}
}

func TestDataTypeFromByte(t *testing.T) {
	tests := []struct {
		name  string
		input byte
		want  *DataType
		bits  int
	}{
		{"zero is absent", 0x00, nil, 0},
		{"rgb 8 bit", 0x0B, &DataType{Color: ColorRGB, SizeCode: 3}, 8},
		{"rgb 24 bit", 0x0D, &DataType{Color: ColorRGB, SizeCode: 5}, 24},
		{"rgbw 8 bit", 0x1B, &DataType{Color: ColorRGBW, SizeCode: 3}, 8},
		{"grayscale 8 bit", 0x23, &DataType{Color: ColorGrayscale, SizeCode: 3}, 8},
		{"custom reserved", 0xC0, &DataType{Custom: true, Reserved: true}, 0},
		{"size code 7 maps to zero", 0x0F, &DataType{Color: ColorRGB, SizeCode: 7}, 0},
		{"undefined color with size", 0x02, &DataType{SizeCode: 2}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DataTypeFromByte(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("DataTypeFromByte(0x%02X) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.BitsPerChannel() != tt.bits {
				t.Errorf("BitsPerChannel() = %d, want %d", got.BitsPerChannel(), tt.bits)
			}
			if got.Byte() != tt.input {
				t.Errorf("Byte() = 0x%02X, want 0x%02X", got.Byte(), tt.input)
			}
		})
	}
}

func TestTargetID(t *testing.T) {
	known := []TargetID{TargetReserved, TargetDefault, TargetJSONControl, TargetJSONConfig, TargetJSONStatus, TargetDMXTransit, TargetAll}
	for _, id := range known {
		if !id.Known() {
			t.Errorf("expected %d to be a named target", uint8(id))
		}
	}

	opaque := TargetID(42)
	if opaque.Known() {
		t.Errorf("expected 42 to be opaque")
	}
	if opaque.String() != "42" {
		t.Errorf("opaque String() = %q", opaque.String())
	}
	if TargetDefault.String() != "default" {
		t.Errorf("TargetDefault.String() = %q", TargetDefault.String())
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	targets := []TargetID{TargetReserved, TargetDefault, TargetJSONControl, TargetAll, TargetID(7), TargetID(200)}

	var count int
	for flagBits := 0; flagBits < 32; flagBits++ {
		flags := Flags{
			Version:  Version1,
			Timecode: flagBits&0x10 != 0,
			Storage:  flagBits&0x08 != 0,
			Reply:    flagBits&0x04 != 0,
			Query:    flagBits&0x02 != 0,
			Push:     flagBits&0x01 != 0,
		}
		for sizeCode := uint8(0); sizeCode < 8; sizeCode++ {
			for _, color := range []ColorType{ColorUndefined, ColorRGB, ColorHSL, ColorRGBW, ColorGrayscale, ColorReserved7} {
				dataType := &DataType{Color: color, SizeCode: sizeCode, Custom: sizeCode%2 == 0}
				if dataType.Byte() == 0 {
					dataType = nil
				}
				for _, target := range targets {
					header := Header{
						Flags:    flags,
						Sequence: uint8(count % 16),
						DataType: dataType,
						Target:   target,
						Offset:   uint32(count) * 3,
						Size:     uint16(count % 1441),
					}

					decoded, err := DecodeHeader(EncodeHeader(header))
					if err != nil {
						t.Fatalf("unexpected error decoding %+v: %v", header, err)
					}
					if !reflect.DeepEqual(decoded, header) {
						t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", decoded, header)
					}
					count++
				}
			}
		}
	}
}

func TestDecodeHeader_TooShort(t *testing.T) {
	for n := 0; n < HeaderLen; n++ {
		_, err := DecodeHeader(make([]byte, n))
		if !errors.Is(err, ErrHeaderTooShort) {
			t.Errorf("length %d: expected ErrHeaderTooShort, got %v", n, err)
		}
	}
}

func TestDecodeHeader_SequenceHighBitsIgnored(t *testing.T) {
	raw := []byte{0x41, 0xF7, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	header, err := DecodeHeader(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header.Sequence != 7 {
		t.Errorf("Sequence = %d, want 7", header.Sequence)
	}
}
