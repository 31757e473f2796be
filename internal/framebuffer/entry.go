// Reconstructed pixel state. All access is serialized by a read-write lock so
// consumers never observe a partially applied write.
package framebuffer

import (
	"errors"
	"fmt"
)

var (
	ErrInvariant        = errors.New("buffer invariant violated")
	ErrCapacityExceeded = errors.New("buffer growth limit exceeded")
)

// Creates an empty buffer. A limit of zero or less uses DefaultMaxPixels.
func New(maxPixels int) (new *Buffer) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels()
	}
	new = &Buffer{
		pixels:    make([]Pixel, 0),
		maxPixels: maxPixels,
	}
	return
}

// Current pixel count
func (buffer *Buffer) Len() (length int) {
	buffer.mu.RLock()
	defer buffer.mu.RUnlock()
	length = len(buffer.pixels)
	return
}

// Growth limit in pixels
func (buffer *Buffer) MaxPixels() int {
	return buffer.maxPixels
}

// Number of writes applied since creation
func (buffer *Buffer) Version() uint64 {
	return buffer.version.Load()
}

// Number of frames committed since creation
func (buffer *Buffer) CommittedVersion() uint64 {
	return buffer.commits.Load()
}

// Appends zero pixels until the buffer holds at least n. Never shrinks.
func (buffer *Buffer) EnsureCapacity(n int) (err error) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	err = buffer.grow(n)
	return
}

// Overwrites [start, start+len(pixels)), growing the buffer as needed
func (buffer *Buffer) WriteRange(start int, pixels []Pixel) (err error) {
	if start < 0 {
		err = fmt.Errorf("%w: negative start index %d", ErrInvariant, start)
		return
	}

	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	err = buffer.grow(start + len(pixels))
	if err != nil {
		return
	}
	copy(buffer.pixels[start:], pixels)

	buffer.version.Add(1)
	return
}

// Copy of the current contents
func (buffer *Buffer) Snapshot() (pixels []Pixel) {
	buffer.mu.RLock()
	defer buffer.mu.RUnlock()

	pixels = make([]Pixel, len(buffer.pixels))
	copy(pixels, buffer.pixels)
	return
}

// Current contents as packed RGB bytes, with the version they belong to
func (buffer *Buffer) SnapshotRGB() (raw []byte, version uint64) {
	buffer.mu.RLock()
	defer buffer.mu.RUnlock()

	version = buffer.version.Load()
	raw = buffer.packRGB()
	return
}

// Marks the current contents as a complete frame (a push was applied)
func (buffer *Buffer) Commit() (commitVersion uint64) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.committed = buffer.packRGB()
	commitVersion = buffer.commits.Add(1)
	return
}

// Packed RGB bytes of the last committed frame. Shared between callers, must not be modified.
func (buffer *Buffer) CommittedRGB() (raw []byte, commitVersion uint64) {
	buffer.mu.RLock()
	defer buffer.mu.RUnlock()

	raw = buffer.committed
	commitVersion = buffer.commits.Load()
	return
}

// Drops all pixels and the committed frame
func (buffer *Buffer) Reset() {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.pixels = buffer.pixels[:0]
	buffer.committed = nil
	buffer.version.Add(1)
	buffer.commits.Add(1)
}

// Caller must hold the lock
func (buffer *Buffer) packRGB() (raw []byte) {
	raw = make([]byte, 0, len(buffer.pixels)*pixelSize)
	for _, pixel := range buffer.pixels {
		raw = append(raw, pixel.R, pixel.G, pixel.B)
	}
	return
}

// Caller must hold the write lock
func (buffer *Buffer) grow(n int) (err error) {
	if n <= len(buffer.pixels) {
		return
	}
	if n > buffer.maxPixels {
		err = fmt.Errorf("%w: need %d pixels, limit is %d", ErrCapacityExceeded, n, buffer.maxPixels)
		return
	}

	if n <= cap(buffer.pixels) {
		// Reslicing exposes stale values left by Reset
		oldLen := len(buffer.pixels)
		buffer.pixels = buffer.pixels[:n]
		clear(buffer.pixels[oldLen:])
		return
	}
	buffer.pixels = append(buffer.pixels, make([]Pixel, n-len(buffer.pixels))...)
	return
}
