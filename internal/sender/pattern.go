package sender

import "math"

// Converts HSV (h 0-360, s and v 0-1) to 8-bit RGB
func hsvToRGB(h, s, v float64) (r, g, b uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60.0, 2)-1))
	m := v - c

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	r = uint8(math.Round((rf + m) * 255))
	g = uint8(math.Round((gf + m) * 255))
	b = uint8(math.Round((bf + m) * 255))
	return
}

// Packed RGB rainbow spread over n pixels, shifted by offset degrees
func Rainbow(n int, offset float64) (frame []byte) {
	if n <= 0 {
		return
	}
	frame = make([]byte, n*3)
	for i := 0; i < n; i++ {
		hue := math.Mod(offset+float64(i)/float64(n)*360, 360)
		if hue < 0 {
			hue += 360
		}
		frame[i*3], frame[i*3+1], frame[i*3+2] = hsvToRGB(hue, 1, 1)
	}
	return
}
