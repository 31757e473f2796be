// Sends pixel frames to a DDP receiver, split over as many datagrams as the payload limit requires
package sender

import (
	"ddpsink/internal/atomics"
	"ddpsink/internal/global"
	"ddpsink/internal/network"
	"ddpsink/pkg/protocol"
	"fmt"
	"net"
	"time"
)

// Dials destination (host:port) and sizes datagrams for its path
func New(namespace []string, destination string, cfg Config) (new *Instance, err error) {
	addr, err := net.ResolveUDPAddr("udp", destination)
	if err != nil {
		err = fmt.Errorf("failed to resolve destination %q: %w", destination, err)
		return
	}

	chunkSize := cfg.MaxPayload
	if chunkSize <= 0 || chunkSize > protocol.MaxDataLen {
		chunkSize = protocol.MaxDataLen
	}

	maxUDPPayload, err := network.FindSendingMaxUDPPayload(addr.IP.String())
	if err != nil {
		err = fmt.Errorf("failed to determine payload size towards %s: %w", addr, err)
		return
	}
	headerLen := protocol.HeaderLen
	if cfg.Timecode {
		headerLen = protocol.HeaderLenTimecode
	}
	if maxUDPPayload-headerLen < chunkSize {
		chunkSize = maxUDPPayload - headerLen
	}

	// Chunks never split a pixel
	chunkSize -= chunkSize % 3
	if chunkSize < 3 {
		err = fmt.Errorf("path towards %s too small for a single pixel (max UDP payload %d)", addr, maxUDPPayload)
		return
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		err = fmt.Errorf("failed to dial %s: %w", addr, err)
		return
	}

	new = &Instance{
		Namespace: append(append([]string{}, namespace...), global.NSSend),
		cfg:       cfg,
		conn:      conn,
		chunkSize: chunkSize,
		epoch:     time.Now(),
		Metrics:   &MetricStorage{},
	}
	return
}

// Payload bytes carried by each datagram
func (instance *Instance) ChunkSize() int {
	return instance.chunkSize
}

// Sends a full frame of packed RGB bytes starting at pixel 0
func (instance *Instance) Write(pixels []byte) (packets int, err error) {
	packets, err = instance.WriteAt(0, pixels)
	return
}

// Sends packed pixel bytes starting at byte offset, push flag set on the last datagram
func (instance *Instance) WriteAt(offset uint32, pixels []byte) (packets int, err error) {
	instance.mu.Lock()
	defer instance.mu.Unlock()

	for _, packet := range instance.packetize(offset, pixels) {
		raw := protocol.EncodePacket(packet)

		_, err = instance.conn.Write(raw)
		if err != nil {
			instance.Metrics.SendErrors.Add(1)
			err = fmt.Errorf("failed to send packet %d (offset %d): %w", packets, packet.Header.Offset, err)
			return
		}
		packets++

		pktLength := uint64(len(raw))
		instance.Metrics.TotalPackets.Add(1)
		instance.Metrics.SumPacketBytes.Add(pktLength)
		atomics.StoreMax(&instance.Metrics.MaxPacketBytes, pktLength)
	}
	instance.Metrics.TotalFrames.Add(1)
	return
}

// Splits pixels into packets; an empty frame still yields one push packet
func (instance *Instance) packetize(offset uint32, pixels []byte) (packets []protocol.Packet) {
	var timecode uint32
	if instance.cfg.Timecode {
		timecode = fixedPointSeconds(time.Since(instance.epoch))
	}

	for start := 0; start < len(pixels) || len(packets) == 0; start += instance.chunkSize {
		end := min(start+instance.chunkSize, len(pixels))

		packet := protocol.Packet{
			Header: protocol.Header{
				Flags: protocol.Flags{
					Version:  protocol.Version1,
					Timecode: instance.cfg.Timecode,
					Push:     end == len(pixels),
				},
				Sequence: instance.nextSequence(),
				DataType: instance.cfg.DataType,
				Target:   instance.cfg.Target,
				Offset:   offset + uint32(start),
				Size:     uint16(end - start),
			},
			Timecode: timecode,
			Payload:  pixels[start:end],
		}
		packets = append(packets, packet)
	}
	return
}

// Sequence cycles 1..15; 0 means sequencing unused
func (instance *Instance) nextSequence() (sequence uint8) {
	instance.sequence = instance.sequence%15 + 1
	sequence = instance.sequence
	return
}

func (instance *Instance) Close() (err error) {
	err = instance.conn.Close()
	return
}

// 16.16 fixed-point seconds, whole seconds wrap at 65536
func fixedPointSeconds(elapsed time.Duration) (timecode uint32) {
	whole := uint32(elapsed / time.Second)
	fraction := uint32((elapsed % time.Second) << 16 / time.Second)
	timecode = whole<<16 | fraction
	return
}
