package framebuffer

import (
	"sync"
	"sync/atomic"
)

// One RGB triple
type Pixel struct {
	R uint8
	G uint8
	B uint8
}

// Growable pixel store shared between the listener (writer) and consumers (readers)
type Buffer struct {
	mu        sync.RWMutex
	pixels    []Pixel
	maxPixels int           // growth limit
	version   atomic.Uint64 // incremented once per applied write

	committed []byte        // packed RGB at the last Commit, replaced not mutated
	commits   atomic.Uint64 // incremented once per Commit
}
