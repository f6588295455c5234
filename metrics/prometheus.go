package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exposes observations as Prometheus collectors.
type PrometheusRecorder struct {
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	connects   *prometheus.CounterVec
	open       prometheus.Gauge
}

// Ensure PrometheusRecorder satisfies the Recorder interface at compile time.
var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlsrv",
			Name:      "statements_total",
			Help:      "Statements executed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sqlsrv",
			Name:      "statement_duration_seconds",
			Help:      "Statement execution time, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlsrv",
			Name:      "connects_total",
			Help:      "Connection attempts, by type and outcome.",
		}, []string{"type", "outcome"}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sqlsrv",
			Name:      "connections_open",
			Help:      "Sessions currently holding a connection.",
		}),
	}

	for _, c := range []prometheus.Collector{r.statements, r.duration, r.connects, r.open} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ObserveStatement implements Recorder.
func (r *PrometheusRecorder) ObserveStatement(kind string, elapsed time.Duration, err error) {
	r.statements.WithLabelValues(kind, outcome(err)).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveConnect implements Recorder.
func (r *PrometheusRecorder) ObserveConnect(reconnect bool, err error) {
	typ := "connect"
	if reconnect {
		typ = "reconnect"
	}
	r.connects.WithLabelValues(typ, outcome(err)).Inc()
	if err == nil {
		r.open.Inc()
	}
}

// ObserveDisconnect implements Recorder.
func (r *PrometheusRecorder) ObserveDisconnect() {
	r.open.Dec()
}
