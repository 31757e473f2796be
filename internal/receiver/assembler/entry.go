// Maps decoded packets onto pixel buffer indices and writes them
package assembler

import (
	"ddpsink/internal/atomics"
	"ddpsink/internal/global"
	"ddpsink/pkg/protocol"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMalformedFrame       = errors.New("malformed frame")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// New assembler with RGB as the only registered format and as the fallback
// for absent or unknown data types
func New(namespace []string) (new *Instance) {
	new = &Instance{
		Namespace: append(append([]string{}, namespace...), global.NSAssm),
		decoders: map[protocol.ColorType]PixelDecoder{
			protocol.ColorRGB: RGBDecoder{},
		},
		fallback: RGBDecoder{},
		Metrics:  &MetricStorage{},
	}
	return
}

// Registers the payload interpretation for a color type
func (instance *Instance) RegisterDecoder(color protocol.ColorType, decoder PixelDecoder) {
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.decoders[color] = decoder
}

func (instance *Instance) decoderFor(dataType *protocol.DataType) (decoder PixelDecoder) {
	instance.mu.RLock()
	defer instance.mu.RUnlock()

	decoder = instance.fallback
	if dataType == nil {
		return
	}
	registered, ok := instance.decoders[dataType.Color]
	if ok {
		decoder = registered
	}
	return
}

// Writes the packet's pixels into buffer at offset/bpp. The payload must carry at
// least size/bpp pixels; extra payload is ignored.
func (instance *Instance) Apply(packet protocol.Packet, buffer PixelWriter) (result Result, err error) {
	start := time.Now()
	defer func() {
		durNs := uint64(time.Since(start).Nanoseconds())
		instance.Metrics.SumNs.Add(durNs)
		atomics.StoreMax(&instance.Metrics.MaxNs, durNs)
	}()

	// Flags are parsed but these operations are not served
	switch {
	case packet.Flags.Query:
		err = fmt.Errorf("%w: query for %d bytes at offset %d", ErrUnsupportedOperation, packet.Size, packet.Offset)
	case packet.Flags.Reply:
		err = fmt.Errorf("%w: reply for target %s", ErrUnsupportedOperation, packet.Target)
	case packet.Flags.Storage:
		err = fmt.Errorf("%w: storage sourced data for target %s", ErrUnsupportedOperation, packet.Target)
	}
	if err != nil {
		instance.Metrics.IgnoredPackets.Add(1)
		return
	}

	decoder := instance.decoderFor(packet.DataType)
	bytesPerPixel := decoder.BytesPerPixel()
	pixels := decoder.Decode(packet.Payload)

	result.StartIndex = int(packet.Offset / uint32(bytesPerPixel))
	result.Count = int(packet.Size) / bytesPerPixel

	if len(pixels) < result.Count {
		instance.Metrics.MalformedPackets.Add(1)
		err = fmt.Errorf("%w: size %d declares %d pixels but payload of %d bytes carries %d",
			ErrMalformedFrame, packet.Size, result.Count, len(packet.Payload), len(pixels))
		return
	}

	err = buffer.WriteRange(result.StartIndex, pixels[:result.Count])
	if err != nil {
		instance.Metrics.FailedWrites.Add(1)
		err = fmt.Errorf("failed writing %d pixels at index %d: %w", result.Count, result.StartIndex, err)
		return
	}

	instance.Metrics.AppliedPackets.Add(1)
	instance.Metrics.PixelsWritten.Add(uint64(result.Count))
	return
}
