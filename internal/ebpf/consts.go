package ebpf

const (
	DrainSocket        uint8  = 1
	DrainMapName       string = "ddpsink_draining_sockets"
	DrainFuncName      string = "reuseport_select"
	BPFFSPath          string = "/sys/fs/bpf"
	KernelDrainMapPath string = BPFFSPath + "/" + DrainMapName
	KernelRouteFunc    string = BPFFSPath + "/ddpsink_" + DrainFuncName
)
