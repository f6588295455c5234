package metrics

import (
	"errors"
	"regexp"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	"github.com/tarmac-project/sqlsrv"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name the host would refuse.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	metricName = regexp.MustCompile(`^[a-zA-Z0-9_:]+$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Client creates metric handles on the host metrics capability.
type Client interface {
	NewCounter(name string) (*Counter, error)
	NewGauge(name string) (*Gauge, error)
	NewHistogram(name string) (*Histogram, error)
}

// Config controls how a HostMetrics instance interacts with the host runtime.
type Config struct {
	// Runtime provides the namespace used for host calls.
	Runtime sqlsrv.RuntimeConfig

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall
}

// HostMetrics creates metric handles that report to the Tarmac host.
type HostMetrics struct {
	runtime  sqlsrv.RuntimeConfig
	hostCall HostCall
}

// Ensure HostMetrics satisfies the Client interface at compile time.
var _ Client = (*HostMetrics)(nil)

// New creates a HostMetrics with namespace defaults and an optional host-call
// override.
func New(config Config) (*HostMetrics, error) {
	runtime := config.Runtime
	if runtime.Namespace == "" {
		runtime.Namespace = sqlsrv.DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &HostMetrics{runtime: runtime, hostCall: hostCall}, nil
}

// handle is the state shared by every metric type: a validated name bound to
// one host function. Updates are fire and forget; a failed update is dropped
// rather than surfaced to the statement that triggered it.
type handle struct {
	name     string
	fn       string
	ns       string
	hostCall HostCall
}

func (m *HostMetrics) handle(name, fn string) (handle, error) {
	if !metricName.MatchString(name) {
		return handle{}, ErrInvalidMetricName
	}
	return handle{name: name, fn: fn, ns: m.runtime.Namespace, hostCall: m.hostCall}, nil
}

func (h handle) send(payload []byte, err error) {
	if err != nil {
		return
	}
	_, _ = h.hostCall(h.ns, capabilityName, h.fn, payload)
}

// Counter is a monotonically increasing host metric.
type Counter struct{ handle }

// Gauge is a host metric that moves up and down by one.
type Gauge struct{ handle }

// Histogram is a host metric recording observed values.
type Histogram struct{ handle }

// NewCounter creates a named counter handle.
func (m *HostMetrics) NewCounter(name string) (*Counter, error) {
	h, err := m.handle(name, fnCounter)
	if err != nil {
		return nil, err
	}
	return &Counter{h}, nil
}

// NewGauge creates a named gauge handle.
func (m *HostMetrics) NewGauge(name string) (*Gauge, error) {
	h, err := m.handle(name, fnGauge)
	if err != nil {
		return nil, err
	}
	return &Gauge{h}, nil
}

// NewHistogram creates a named histogram handle.
func (m *HostMetrics) NewHistogram(name string) (*Histogram, error) {
	h, err := m.handle(name, fnHistogram)
	if err != nil {
		return nil, err
	}
	return &Histogram{h}, nil
}

// Inc increments the counter by one.
func (c *Counter) Inc() {
	c.send((&proto.MetricsCounter{Name: c.name}).MarshalVT())
}

// Inc increments the gauge by one.
func (g *Gauge) Inc() {
	g.send((&proto.MetricsGauge{Name: g.name, Action: actionInc}).MarshalVT())
}

// Dec decrements the gauge by one.
func (g *Gauge) Dec() {
	g.send((&proto.MetricsGauge{Name: g.name, Action: actionDec}).MarshalVT())
}

// Observe records value in the histogram.
func (h *Histogram) Observe(value float64) {
	h.send((&proto.MetricsHistogram{Name: h.name, Value: value}).MarshalVT())
}
