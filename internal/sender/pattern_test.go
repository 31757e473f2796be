package sender

import (
	"bytes"
	"testing"
)

func TestHsvToRGB(t *testing.T) {
	tests := []struct {
		hue     float64
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{60, 255, 255, 0},
		{120, 0, 255, 0},
		{180, 0, 255, 255},
		{240, 0, 0, 255},
		{300, 255, 0, 255},
	}
	for _, tt := range tests {
		r, g, b := hsvToRGB(tt.hue, 1, 1)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("hue %v = (%d,%d,%d) want (%d,%d,%d)", tt.hue, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestRainbow(t *testing.T) {
	frame := Rainbow(3, 0)
	want := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255}
	if !bytes.Equal(frame, want) {
		t.Fatalf("Rainbow(3,0)=%v want=%v", frame, want)
	}

	// Offset of a full pixel step rotates the pattern
	shifted := Rainbow(3, 120)
	if !bytes.Equal(shifted[:6], frame[3:]) {
		t.Errorf("shifted=%v", shifted)
	}

	if Rainbow(0, 0) != nil || Rainbow(-1, 0) != nil {
		t.Errorf("non-positive pixel count should give nil")
	}
	if len(Rainbow(500, -30)) != 1500 {
		t.Errorf("negative offset changed frame size")
	}
}
