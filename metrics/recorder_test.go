package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	"github.com/tarmac-project/sqlsrv"
)

// recordingHost captures the metric names sent to the host.
type recordingHost struct {
	mu       sync.Mutex
	counters []string
	observed []float64
	gauge    []string
}

func (h *recordingHost) call(_, _, function string, payload []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch function {
	case fnCounter:
		var req proto.MetricsCounter
		if err := req.UnmarshalVT(payload); err != nil {
			return nil, err
		}
		h.counters = append(h.counters, req.GetName())
	case fnGauge:
		var req proto.MetricsGauge
		if err := req.UnmarshalVT(payload); err != nil {
			return nil, err
		}
		h.gauge = append(h.gauge, req.GetAction())
	case fnHistogram:
		var req proto.MetricsHistogram
		if err := req.UnmarshalVT(payload); err != nil {
			return nil, err
		}
		h.observed = append(h.observed, req.GetValue())
	}
	return nil, nil
}

func TestHostRecorder(t *testing.T) {
	t.Parallel()

	host := &recordingHost{}
	c, err := New(Config{Runtime: sqlsrv.RuntimeConfig{Namespace: "tarmac"}, HostCall: host.call})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	r, err := NewHostRecorder(c)
	if err != nil {
		t.Fatalf("NewHostRecorder returned error: %v", err)
	}

	r.ObserveStatement("select", 2*time.Second, nil)
	r.ObserveStatement("insert", time.Second, errors.New("boom"))
	r.ObserveStatement("select", time.Second, nil)
	r.ObserveConnect(false, nil)
	r.ObserveConnect(true, errors.New("refused"))
	r.ObserveDisconnect()

	want := []string{
		"sqlsrv_select_ok_total",
		"sqlsrv_insert_error_total",
		"sqlsrv_select_ok_total",
		"sqlsrv_connect_ok_total",
		"sqlsrv_reconnect_error_total",
	}
	if len(host.counters) != len(want) {
		t.Fatalf("counter calls mismatch: want %v got %v", want, host.counters)
	}
	for i := range want {
		if host.counters[i] != want[i] {
			t.Fatalf("counter %d: want %q got %q", i, want[i], host.counters[i])
		}
	}

	if len(host.observed) != 3 || host.observed[0] != 2 {
		t.Fatalf("unexpected histogram observations %v", host.observed)
	}

	if len(host.gauge) != 3 || host.gauge[0] != actionInc || host.gauge[2] != actionDec {
		t.Fatalf("unexpected gauge actions %v", host.gauge)
	}

	if len(r.counters) != 4 {
		t.Fatalf("expected counter handles to be cached, got %d", len(r.counters))
	}
}

func TestPrometheusRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusRecorder returned error: %v", err)
	}

	r.ObserveStatement("select", time.Millisecond, nil)
	r.ObserveStatement("select", time.Millisecond, nil)
	r.ObserveStatement("delete", time.Millisecond, errors.New("boom"))
	r.ObserveConnect(false, nil)
	r.ObserveConnect(true, nil)
	r.ObserveConnect(true, errors.New("refused"))
	r.ObserveDisconnect()

	tt := []struct {
		name string
		got  float64
		want float64
	}{
		{"select ok", testutil.ToFloat64(r.statements.WithLabelValues("select", "ok")), 2},
		{"delete error", testutil.ToFloat64(r.statements.WithLabelValues("delete", "error")), 1},
		{"connect", testutil.ToFloat64(r.connects.WithLabelValues("connect", "ok")), 1},
		{"reconnect", testutil.ToFloat64(r.connects.WithLabelValues("reconnect", "ok")), 1},
		{"reconnect error", testutil.ToFloat64(r.connects.WithLabelValues("reconnect", "error")), 1},
		{"open", testutil.ToFloat64(r.open), 1},
	}
	for _, tc := range tt {
		if tc.got != tc.want {
			t.Errorf("%s: want %v got %v", tc.name, tc.want, tc.got)
		}
	}

	t.Run("Duplicate registration", func(t *testing.T) {
		if _, err := NewPrometheusRecorder(reg); err == nil {
			t.Fatalf("expected registration error")
		}
	})
}

func TestNop(t *testing.T) {
	t.Parallel()

	r := Nop()
	r.ObserveStatement("select", time.Second, nil)
	r.ObserveConnect(true, errors.New("ignored"))
	r.ObserveDisconnect()
}
