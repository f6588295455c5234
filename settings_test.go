package sqlsrv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("SQLSRV_TEST_PASSWORD", "s3cret'")

	path := writeSettings(t, `
server: dbhost\SQLEXPRESS
user: app
password: ${SQLSRV_TEST_PASSWORD}
database: orders
encrypt: "true"
dial_timeout: 5s
log:
  enabled: true
  file: /var/log/db_log
`)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}

	if s.Password != "s3cret'" {
		t.Fatalf("expected password from environment, got %q", s.Password)
	}
	if s.Transport != TransportMSSQL || s.Namespace != DefaultNamespace {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if s.DialTimeout != 5*time.Second {
		t.Fatalf("expected dial timeout 5s, got %s", s.DialTimeout)
	}
	if s.Log.Level != "info" || s.Log.Format != "json" || s.Log.File != "/var/log/db_log" {
		t.Fatalf("unexpected log settings %+v", s.Log)
	}

	host, instance := s.Address()
	if host != "dbhost" || instance != "SQLEXPRESS" {
		t.Fatalf("unexpected address %q %q", host, instance)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		body string
	}{
		{name: "Malformed YAML", body: "server: [unclosed"},
		{name: "Unknown Transport", body: "host: db\ndatabase: x\ntransport: odbc"},
		{name: "Missing Database", body: "host: db"},
		{name: "Missing Server", body: "database: orders"},
		{name: "Bad Port", body: "host: db\ndatabase: x\nport: 70000"},
		{name: "Bad Log Level", body: "host: db\ndatabase: x\nlog:\n  level: loud"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadSettings(writeSettings(t, tc.body))
			if !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestHostTransportNeedsNoServer(t *testing.T) {
	t.Parallel()

	s := Settings{Transport: TransportHost, Namespace: "functions"}.WithDefaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if s.Runtime().Namespace != "functions" {
		t.Fatalf("unexpected runtime %+v", s.Runtime())
	}
}

func TestAddress(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name         string
		settings     Settings
		wantHost     string
		wantInstance string
	}{
		{name: "Host Only", settings: Settings{Host: "db"}, wantHost: "db"},
		{name: "Server Wins", settings: Settings{Host: "db", Server: "other"}, wantHost: "other"},
		{name: "Named Instance", settings: Settings{Server: `db\INST`}, wantHost: "db", wantInstance: "INST"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			host, instance := tc.settings.Address()
			if host != tc.wantHost || instance != tc.wantInstance {
				t.Fatalf("want %q %q, got %q %q", tc.wantHost, tc.wantInstance, host, instance)
			}
		})
	}
}

func TestRuntimeDefaultNamespace(t *testing.T) {
	t.Parallel()

	if got := (Settings{}).Runtime().Namespace; got != DefaultNamespace {
		t.Fatalf("expected %q, got %q", DefaultNamespace, got)
	}
}
