// Process lifecycle handling shared by the daemon commands (signals, service manager notifications)
package lifecycle

import (
	"context"
	"ddpsink/internal/global"
	"ddpsink/internal/logctx"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Service manager state assignments (sd_notify)
const (
	stateReady    string = "READY=1"
	stateStopping string = "STOPPING=1"
	stateStatus   string = "STATUS="
	stateMonotime string = "MONOTONIC_USEC="
)

// Tells the service manager the receiver is bound and serving
func NotifyReady(ctx context.Context) (err error) {
	err = notify(ctx, stateReady)
	return
}

// Tells the service manager shutdown has begun, stamped with the monotonic clock
func NotifyStopping(ctx context.Context) (err error) {
	var ts unix.Timespec
	err = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	if err != nil {
		err = fmt.Errorf("failed reading monotonic clock: %w", err)
		return
	}

	err = notify(ctx, stateStopping, stateMonotime+strconv.FormatInt(ts.Nano()/1_000, 10))
	return
}

// One line status (buffer size, subscribers) shown by the service manager. Newlines would
// start a new assignment so they are flattened.
func NotifyStatus(ctx context.Context, msg string) (err error) {
	err = notify(ctx, stateStatus+strings.ReplaceAll(msg, "\n", " "))
	return
}

// Sends newline joined assignments as a single datagram to $NOTIFY_SOCKET.
// No-op without NOTIFY_SOCKET. A leading '@' selects the abstract namespace.
func notify(ctx context.Context, assignments ...string) (err error) {
	sockPath := os.Getenv("NOTIFY_SOCKET")
	if sockPath == "" {
		return
	}
	msg := strings.Join(assignments, "\n")

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		err = fmt.Errorf("notify socket: %w", err)
		return
	}
	defer unix.Close(fd)

	err = unix.Sendto(fd, []byte(msg), 0, &unix.SockaddrUnix{Name: sockPath})
	if err != nil {
		err = fmt.Errorf("notify send to %s: %w", sockPath, err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Notified service manager: %q\n", msg)
	return
}
