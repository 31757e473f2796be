package global

import "time"

const (
	// Descriptive Names for available verbosity levels
	VerbosityNone int = iota
	VerbosityStandard
	VerbosityProgress
	VerbosityData
	VerbosityFullData
	VerbosityDebug

	// Descriptive names for available severity levels
	ErrorLog string = "Error"
	WarnLog  string = "Warn"
	InfoLog  string = "Info"
)

const (
	ProgBaseName string = "ddpsink"
	ProgVersion  string = "v0.3.1"

	// Context keys
	LoggerKey  CtxKey = "logger"  // Event queue (mostly for variable log verbosity handling)
	LogTagsKey CtxKey = "logtags" // List of tags in order of broad->specific appended/popped at various parts of the program

	DefaultConfigPath   string = "/etc/ddpsink.json"
	DefaultListenIP     string = "0.0.0.0"
	DefaultReceiverPort int    = 4048

	// Largest UDP payload (65535 - 8 byte UDP header - 20 byte IPv4 header)
	MaxDatagramSize int = 65507

	// Timeout values
	ReceiveShutdownTimeout time.Duration = 10 * time.Second
	SocketDrainTimeout     time.Duration = 2 * time.Second

	// Consumer HTTP server
	HTTPListenPort   int           = 10000 + DefaultReceiverPort
	HTTPListenAddr   string        = "localhost"
	HTTPReadTimeout  time.Duration = 30 * time.Second
	HTTPWriteTimeout time.Duration = 10 * time.Second
	HTTPIdleTimeout  time.Duration = 180 * time.Second

	SnapshotPath    string = "/snapshot"
	RawSnapshotPath string = "/snapshot.rgb"
	StreamPath      string = "/stream"
	DataPath        string = "/metrics/data/"
	DiscoveryPath   string = "/metrics/discover/"
	AggregationPath string = "/metrics/aggregate/"

	// Metric aggregation types
	MetricSum string = "sum"
	MetricMin string = "min"
	MetricMax string = "max"
	MetricAvg string = "avg"

	MetricTrimmedMean string = "tmean" // mean without the outer 10% on each side

	DefaultMetricInterval time.Duration = 15 * time.Second
	DefaultMetricMaxAge   time.Duration = 1 * time.Hour

	DefaultStreamInterval time.Duration = 20 * time.Millisecond

	DefaultCommitQueueSize int = 1024

	// Namespacing Name Components
	NSMetric    string = "Metrics"
	NSMetricSrv string = "Server"
	NSTest      string = "Test"
	NSCLI       string = "CLI"
	NSRecv      string = "Receiver"
	NSSend      string = "Sender"
	NSAssm      string = "Assembler"
	NSListen    string = "Listener"
	NSStream    string = "Stream"
	NSoBeats    string = "Beats"
	NSQueue     string = "Queue"
)
