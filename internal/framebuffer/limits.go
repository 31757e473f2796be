package framebuffer

import "github.com/pbnjay/memory"

const (
	// Highest index reachable with a 32-bit byte offset and a 16-bit size
	MaxAddressablePixels int = (1<<32-1)/3 + (1<<16-1)/3

	fallbackMaxPixels int = 1 << 24 // used when free memory cannot be read
	minMaxPixels      int = 1 << 16
	pixelSize         int = 3
)

// Derives a growth limit from currently free system memory (a quarter of it).
// A single datagram can carry an offset near 4GiB, so growth is never unbounded.
func DefaultMaxPixels() (limit int) {
	free := memory.FreeMemory()
	if free == 0 {
		limit = fallbackMaxPixels
		return
	}

	limit = int(free / 4 / uint64(pixelSize))
	if limit < minMaxPixels {
		limit = minMaxPixels
	}
	if limit > MaxAddressablePixels {
		limit = MaxAddressablePixels
	}
	return
}
