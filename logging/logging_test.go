package logging

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/hostmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	customHostCall := func(string, string, string, []byte) ([]byte, error) {
		return nil, nil
	}

	tt := []struct {
		name        string
		namespace   string
		hostCall    func(string, string, string, []byte) ([]byte, error)
		wantNS      string
		wantHostPtr uintptr
	}{
		{
			name:      "custom namespace",
			namespace: "custom",
			wantNS:    "custom",
		},
		{
			name:        "default namespace with override",
			hostCall:    customHostCall,
			wantNS:      sqlsrv.DefaultNamespace,
			wantHostPtr: reflect.ValueOf(customHostCall).Pointer(),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(Config{Runtime: sqlsrv.RuntimeConfig{Namespace: tc.namespace}, HostCall: tc.hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			impl, ok := c.(*client)
			if !ok {
				t.Fatalf("expected *client implementation, got %T", c)
			}

			if impl.runtime.Namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, impl.runtime.Namespace)
			}

			if tc.wantHostPtr != 0 {
				if got := reflect.ValueOf(impl.hostCall).Pointer(); got != tc.wantHostPtr {
					t.Fatalf("hostcall pointer mismatch: want %v, got %v", tc.wantHostPtr, got)
				}
			}
		})
	}
}

func TestClientMethods(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		call func(Client)
	}{
		{"Info", func(c Client) { c.Info("msg") }},
		{"Warn", func(c Client) { c.Warn("msg") }},
		{"Error", func(c Client) { c.Error("msg") }},
		{"Debug", func(c Client) { c.Debug("msg") }},
		{"Trace", func(c Client) { c.Trace("msg") }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, _ := hostmock.New(hostmock.Config{
				ExpectedNamespace:  sqlsrv.DefaultNamespace,
				ExpectedCapability: capabilityName,
				ExpectedFunction:   tc.name,
			})
			c, err := New(Config{HostCall: mock.HostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			tc.call(c)

			calls := mock.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected one host call, got %d", len(calls))
			}
			if calls[0].Function != tc.name || string(calls[0].Payload) != "msg" {
				t.Fatalf("unexpected call: %+v", calls[0])
			}
		})
	}
}

func TestCoreForwardsByLevel(t *testing.T) {
	t.Parallel()

	mock, _ := hostmock.New(hostmock.Config{ExpectedCapability: capabilityName})
	c, _ := New(Config{HostCall: mock.HostCall})

	logger := zap.New(NewCore(c, zapcore.InfoLevel)).With(zap.String("database", "orders"))
	logger.Debug("dropped")
	logger.Info("connected", zap.Bool("reconnect", true))
	logger.Warn("connection lost")
	logger.Error("statement failed", zap.String("kind", "insert"))

	calls := mock.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 forwarded entries, got %d", len(calls))
	}

	want := []string{"Info", "Warn", "Error"}
	for i, call := range calls {
		if call.Function != want[i] {
			t.Fatalf("call %d: want function %s, got %s", i, want[i], call.Function)
		}
		if !strings.Contains(string(call.Payload), `"database": "orders"`) {
			t.Fatalf("call %d: expected context field, got %q", i, call.Payload)
		}
	}

	if p := string(calls[0].Payload); !strings.HasPrefix(p, "connected") || !strings.Contains(p, `"reconnect": true`) {
		t.Fatalf("unexpected info payload %q", p)
	}
	if p := string(calls[2].Payload); strings.HasSuffix(p, "\n") {
		t.Fatalf("payload must not carry a line ending: %q", p)
	}
}
