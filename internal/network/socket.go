package network

import (
	"context"
	"ddpsink/internal/atomics"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Socket options applied before bind so a restarted daemon can take over the port
// while the previous process is still draining
func reuseControl(network, address string, c syscall.RawConn) error {
	var err error
	controlErr := c.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if err != nil {
			return
		}
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if controlErr != nil {
		return controlErr
	}
	return err
}

// Binds a UDP socket on address:port with address and port reuse enabled
func ListenUDP(address string, port int) (conn *net.UDPConn, err error) {
	cfg := net.ListenConfig{Control: reuseControl}

	pc, err := cfg.ListenPacket(context.Background(), "udp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		err = fmt.Errorf("failed to listen on udp %s:%d: %w", address, port, err)
		return
	}
	conn = pc.(*net.UDPConn)
	return
}

// Binds a TCP listener with address and port reuse enabled
func ListenTCP(addr string) (listener net.Listener, err error) {
	cfg := net.ListenConfig{Control: reuseControl}

	listener, err = cfg.Listen(context.Background(), "tcp", addr)
	if err != nil {
		err = fmt.Errorf("failed to listen on tcp %s: %w", addr, err)
		return
	}
	return
}

// Size of the next datagram waiting in the kernel receive queue (0 when empty)
func QueuedBytes(conn *net.UDPConn) (queued uint64, err error) {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		err = fmt.Errorf("failed to access raw socket: %w", err)
		return
	}

	var ioctlErr error
	var size int
	err = rawConn.Control(func(fd uintptr) {
		size, ioctlErr = unix.IoctlGetInt(int(fd), unix.SIOCINQ)
	})
	if err != nil {
		err = fmt.Errorf("failed to control raw socket: %w", err)
		return
	}
	if ioctlErr != nil {
		err = fmt.Errorf("SIOCINQ ioctl failed: %w", ioctlErr)
		return
	}
	if size > 0 {
		queued = uint64(size)
	}
	return
}

// Blocks until the kernel receive queue for conn stays empty or timeout passes.
// The socket must still be open and read by someone for the queue to drain.
func WaitUntilEmptySocket(conn *net.UDPConn, timeout time.Duration) (drained bool, err error) {
	drained, _, err = atomics.WaitUntil(func() (uint64, error) {
		return QueuedBytes(conn)
	}, timeout)
	return
}
