package hostmock

import (
	"bytes"
	"errors"
	"testing"
)

var errDeadlock = errors.New("transaction was deadlocked")

func TestHostMock(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name       string
		cfg        Config
		namespace  string
		capability string
		function   string
		payload    []byte
		want       []byte
		wantErr    error
	}{
		{
			name: "expected sql query",
			cfg: Config{
				ExpectedNamespace:  "tarmac",
				ExpectedCapability: "sql",
				ExpectedFunction:   "query",
				Response:           func() []byte { return []byte("rows") },
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "query",
			payload:    []byte("SELECT 1"),
			want:       []byte("rows"),
		},
		{
			name: "scripted failure",
			cfg: Config{
				ExpectedCapability: "sql",
				Fail:               true,
				Error:              errDeadlock,
				Response:           func() []byte { return []byte("rows") },
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "exec",
			payload:    []byte("UPDATE Orders SET state = 1"),
			wantErr:    errDeadlock,
		},
		{
			name:       "failure without error",
			cfg:        Config{Fail: true},
			namespace:  "tarmac",
			capability: "sql",
			function:   "query",
			wantErr:    ErrOperationFailed,
		},
		{
			name:       "no response",
			cfg:        Config{ExpectedFunction: "exec"},
			namespace:  "tarmac",
			capability: "sql",
			function:   "exec",
			payload:    []byte("DELETE FROM Orders WHERE id = 1"),
		},
		{
			name: "payload rejected",
			cfg: Config{
				PayloadValidator: func(p []byte) error {
					if !bytes.HasPrefix(p, []byte("SELECT")) {
						return errDeadlock
					}
					return nil
				},
				Response: func() []byte { return []byte("rows") },
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "query",
			payload:    []byte("DROP TABLE Orders"),
			wantErr:    errDeadlock,
		},
		{
			name: "blank expectations match anything",
			cfg: Config{
				Response: func() []byte { return []byte("any") },
			},
			namespace:  "orders",
			capability: "metrics",
			function:   "counter",
			want:       []byte("any"),
		},
		{
			name: "routed function",
			cfg: Config{
				ExpectedCapability: "sql",
				ExpectedFunction:   "ignored",
				Routes: map[string]Handler{
					"query": func(p []byte) ([]byte, error) {
						return append([]byte("echo:"), p...), nil
					},
				},
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "query",
			payload:    []byte("SELECT 1"),
			want:       []byte("echo:SELECT 1"),
		},
		{
			name: "routed handler error",
			cfg: Config{
				Routes: map[string]Handler{
					"exec": func([]byte) ([]byte, error) { return nil, errDeadlock },
				},
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "exec",
			wantErr:    errDeadlock,
		},
		{
			name: "unrouted function",
			cfg: Config{
				Routes: map[string]Handler{
					"query": func([]byte) ([]byte, error) { return nil, nil },
				},
			},
			namespace:  "tarmac",
			capability: "sql",
			function:   "exec",
			wantErr:    ErrUnexpectedFunction,
		},
		{
			name:       "unexpected namespace",
			cfg:        Config{ExpectedNamespace: "tarmac"},
			namespace:  "orders",
			capability: "sql",
			function:   "query",
			wantErr:    ErrUnexpectedNamespace,
		},
		{
			name:       "unexpected capability",
			cfg:        Config{ExpectedCapability: "sql"},
			namespace:  "tarmac",
			capability: "metrics",
			function:   "counter",
			wantErr:    ErrUnexpectedCapability,
		},
		{
			name:       "unexpected function",
			cfg:        Config{ExpectedFunction: "query"},
			namespace:  "tarmac",
			capability: "sql",
			function:   "exec",
			wantErr:    ErrUnexpectedFunction,
		},
		{
			name: "capability checked before routes",
			cfg: Config{
				ExpectedCapability: "sql",
				Routes: map[string]Handler{
					"query": func([]byte) ([]byte, error) { return []byte("rows"), nil },
				},
			},
			namespace:  "tarmac",
			capability: "kvstore",
			function:   "query",
			wantErr:    ErrUnexpectedCapability,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			got, err := mock.HostCall(tc.namespace, tc.capability, tc.function, tc.payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: got %v, want %v", err, tc.wantErr)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("unexpected response: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHostMockRecordsCalls(t *testing.T) {
	t.Parallel()

	mock, err := New(Config{
		ExpectedNamespace: "tarmac",
		Routes: map[string]Handler{
			"query": func([]byte) ([]byte, error) { return nil, nil },
			"exec":  func([]byte) ([]byte, error) { return nil, errDeadlock },
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	payload := []byte("SELECT 1")
	_, _ = mock.HostCall("tarmac", "sql", "query", payload)
	_, _ = mock.HostCall("tarmac", "sql", "exec", []byte("UPDATE t SET a = 1;"))
	_, _ = mock.HostCall("other", "sql", "query", nil)
	payload[0] = 'X'

	calls := mock.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", len(calls))
	}
	if string(calls[0].Payload) != "SELECT 1" {
		t.Fatalf("recorded payload should be a copy, got %q", calls[0].Payload)
	}
	if calls[1].Capability != "sql" || calls[1].Function != "exec" {
		t.Fatalf("unexpected second call: %+v", calls[1])
	}
	if calls[2].Namespace != "other" {
		t.Fatalf("calls failing validation are recorded too, got %+v", calls[2])
	}
	if n := mock.CallCount("query"); n != 2 {
		t.Fatalf("expected 2 query calls, got %d", n)
	}
	if n := mock.CallCount("exec"); n != 1 {
		t.Fatalf("expected 1 exec call, got %d", n)
	}
	if n := mock.CallCount("counter"); n != 0 {
		t.Fatalf("expected no counter calls, got %d", n)
	}

	calls[0].Function = "changed"
	if mock.CallCount("query") != 2 {
		t.Fatal("Calls should return a copy of the recorded calls")
	}
}
