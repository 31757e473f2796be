// Kernel-side socket draining for graceful handover between listener processes
package ebpf

import (
	"fmt"
	"net"
	"os"
	"runtime"

	"github.com/cilium/ebpf"
	"golang.org/x/sys/unix"
)

// Retrieve unique identifier (cookie) for a given socket
func GetSocketCookie(conn *net.UDPConn) (cookie uint64, err error) {
	if runtime.GOOS != "linux" {
		return
	}

	rawConn, err := conn.SyscallConn()
	if err != nil {
		return
	}

	var sockErr error
	err = rawConn.Control(func(fd uintptr) {
		cookie, sockErr = unix.GetsockoptUint64(int(fd), unix.SOL_SOCKET, unix.SO_COOKIE)
	})
	if err != nil {
		return
	}
	if sockErr != nil {
		err = fmt.Errorf("getsockopt failed: %w", sockErr)
		return
	}
	return
}

// Mark a socket cookie as draining so the pinned reuseport selector stops
// routing new datagrams to it. No-op when the map is not pinned.
func MarkSocketDraining(pinnedMapPath string, socketCookie uint64) (marked bool, err error) {
	if runtime.GOOS != "linux" {
		return
	}

	if pinnedMapPath == "" {
		err = fmt.Errorf("map path empty")
		return
	}

	_, err = os.Stat(pinnedMapPath)
	if err != nil && (os.IsNotExist(err) || os.IsPermission(err)) {
		err = nil
		return
	}

	socketMap, err := ebpf.LoadPinnedMap(pinnedMapPath, nil)
	if err != nil {
		err = fmt.Errorf("failed to load eBPF map: %w", err)
		return
	}
	defer socketMap.Close()

	err = socketMap.Put(socketCookie, DrainSocket)
	if err != nil {
		err = fmt.Errorf("failed to mark socket draining: %w", err)
		return
	}

	marked = true
	return
}
