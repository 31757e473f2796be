package ebpf

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/cilium/ebpf"
	"golang.org/x/sys/unix"
)

// Loads a compiled reuseport selector object from disk into the kernel and pins
// its draining map and program under bpffs. Missing object, missing BTF or a
// non-root caller make this a no-op.
func LoadProgram(objectPath string) (loaded bool, err error) {
	if runtime.GOOS != "linux" || objectPath == "" {
		return
	}

	_, err = os.Stat("/sys/kernel/btf/vmlinux")
	if os.IsNotExist(err) {
		err = nil
		return
	}
	if os.Geteuid() != 0 {
		err = nil
		return
	}

	_, err = os.Stat(objectPath)
	if err != nil {
		err = nil
		return
	}

	spec, err := ebpf.LoadCollectionSpec(objectPath)
	if err != nil {
		err = fmt.Errorf("load eBPF spec: %w", err)
		return
	}

	err = unix.Setrlimit(unix.RLIMIT_MEMLOCK, &unix.Rlimit{
		Cur: unix.RLIM_INFINITY,
		Max: unix.RLIM_INFINITY,
	})
	if err != nil {
		err = fmt.Errorf("set resource limit: %w", err)
		return
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		err = fmt.Errorf("load eBPF collection: %w", err)
		return
	}
	defer coll.Close()

	_, err = os.Stat(BPFFSPath)
	if os.IsNotExist(err) {
		err = unix.Mount("bpffs", BPFFSPath, "bpf", 0, "")
		if err != nil {
			err = fmt.Errorf("bpffs was not mounted and mount attempt failed: %w", err)
			return
		}
	}
	err = nil

	// Map survives restarts so draining marks from the previous process stay valid
	_, statErr := os.Stat(KernelDrainMapPath)
	if os.IsNotExist(statErr) {
		drainingMap, ok := coll.Maps[DrainMapName]
		if !ok {
			err = fmt.Errorf("map %s not found in %s", DrainMapName, objectPath)
			return
		}
		err = drainingMap.Pin(KernelDrainMapPath)
		if err != nil && !errors.Is(err, os.ErrExist) {
			err = fmt.Errorf("pin map: %w", err)
			return
		}
	}

	err = os.Remove(KernelRouteFunc)
	if err != nil && !os.IsNotExist(err) {
		err = fmt.Errorf("failed to remove old pinned program: %w", err)
		return
	}

	prog, ok := coll.Programs[DrainFuncName]
	if !ok {
		err = fmt.Errorf("program %s not found in %s", DrainFuncName, objectPath)
		return
	}
	err = prog.Pin(KernelRouteFunc)
	if err != nil {
		err = fmt.Errorf("pin program: %w", err)
		return
	}

	loaded = true
	return
}
