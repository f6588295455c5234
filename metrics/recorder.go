package metrics

import (
	"sync"
	"time"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Recorder observes database activity.
type Recorder interface {
	// ObserveStatement records one statement execution of the given kind.
	ObserveStatement(kind string, elapsed time.Duration, err error)

	// ObserveConnect records one connection attempt. reconnect is true when
	// the session had been connected before.
	ObserveConnect(reconnect bool, err error)

	// ObserveDisconnect records that a connected session let go of its
	// handle, whether closed by the caller or lost.
	ObserveDisconnect()
}

type nopRecorder struct{}

func (nopRecorder) ObserveStatement(string, time.Duration, error) {}
func (nopRecorder) ObserveConnect(bool, error)                    {}
func (nopRecorder) ObserveDisconnect()                            {}

// Nop returns a Recorder that discards every observation.
func Nop() Recorder { return nopRecorder{} }

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// HostRecorder reports observations through host metric handles. Counter
// names carry the statement kind and outcome since host metrics have no
// labels, e.g. sqlsrv_select_ok_total.
type HostRecorder struct {
	client Client

	mu       sync.Mutex
	counters map[string]*Counter

	duration *Histogram
	open     *Gauge
}

// Ensure HostRecorder satisfies the Recorder interface at compile time.
var _ Recorder = (*HostRecorder)(nil)

// NewHostRecorder creates a Recorder backed by client.
func NewHostRecorder(client Client) (*HostRecorder, error) {
	duration, err := client.NewHistogram("sqlsrv_statement_duration_seconds")
	if err != nil {
		return nil, err
	}

	open, err := client.NewGauge("sqlsrv_connections_open")
	if err != nil {
		return nil, err
	}

	return &HostRecorder{
		client:   client,
		counters: make(map[string]*Counter),
		duration: duration,
		open:     open,
	}, nil
}

// ObserveStatement increments sqlsrv_<kind>_<outcome>_total and observes
// the elapsed time.
func (r *HostRecorder) ObserveStatement(kind string, elapsed time.Duration, err error) {
	r.inc("sqlsrv_" + kind + "_" + outcome(err) + "_total")
	r.duration.Observe(elapsed.Seconds())
}

// ObserveConnect increments sqlsrv_connect_<outcome>_total or
// sqlsrv_reconnect_<outcome>_total, and sqlsrv_connections_open on success.
func (r *HostRecorder) ObserveConnect(reconnect bool, err error) {
	name := "sqlsrv_connect_"
	if reconnect {
		name = "sqlsrv_reconnect_"
	}
	r.inc(name + outcome(err) + "_total")
	if err == nil {
		r.open.Inc()
	}
}

// ObserveDisconnect decrements sqlsrv_connections_open.
func (r *HostRecorder) ObserveDisconnect() {
	r.open.Dec()
}

func (r *HostRecorder) inc(name string) {
	r.mu.Lock()
	c, ok := r.counters[name]
	if !ok {
		var err error
		c, err = r.client.NewCounter(name)
		if err != nil {
			r.mu.Unlock()
			return
		}
		r.counters[name] = c
	}
	r.mu.Unlock()

	c.Inc()
}
