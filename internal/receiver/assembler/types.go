package assembler

import (
	"ddpsink/internal/framebuffer"
	"ddpsink/pkg/protocol"
	"sync"
)

// Turns a payload into pixels. Offset and size in the header are divided by
// BytesPerPixel to find buffer indices.
type PixelDecoder interface {
	BytesPerPixel() int
	Decode(payload []byte) []framebuffer.Pixel
}

// Destination of assembled pixels
type PixelWriter interface {
	WriteRange(start int, pixels []framebuffer.Pixel) error
}

type Instance struct {
	Namespace []string
	mu        sync.RWMutex
	decoders  map[protocol.ColorType]PixelDecoder
	fallback  PixelDecoder
	Metrics   *MetricStorage
}

// Outcome of one applied packet
type Result struct {
	StartIndex int
	Count      int
}
