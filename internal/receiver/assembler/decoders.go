package assembler

import "ddpsink/internal/framebuffer"

// Packed 8-bit RGB triplets. Trailing partial triplets are dropped.
type RGBDecoder struct{}

func (RGBDecoder) BytesPerPixel() int { return 3 }

func (RGBDecoder) Decode(payload []byte) (pixels []framebuffer.Pixel) {
	pixels = make([]framebuffer.Pixel, len(payload)/3)
	for i := range pixels {
		triplet := payload[i*3 : i*3+3]
		pixels[i] = framebuffer.Pixel{R: triplet[0], G: triplet[1], B: triplet[2]}
	}
	return
}
