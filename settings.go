package sqlsrv

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultNamespace is used when no explicit host namespace is provided.
const DefaultNamespace = "tarmac"

const (
	// TransportMSSQL connects directly to SQL Server with the native driver.
	TransportMSSQL = "mssql"

	// TransportHost executes statements through the Tarmac host sql capability.
	TransportHost = "host"
)

// DefaultDialTimeout bounds how long the native driver waits for a TCP connection.
const DefaultDialTimeout = 15 * time.Second

var validate = validator.New()

// RuntimeConfig carries configuration used when creating Tarmac host clients.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// Settings carries the credentials and transport options of one logical
// database connection.
type Settings struct {
	// Host is the address of the database server. It is used when Server is empty.
	Host string `yaml:"host"`

	// Port overrides the server port. Zero leaves the driver default in place.
	Port int `yaml:"port" validate:"gte=0,lte=65535"`

	// Server identifies the server to connect to. A specific instance is
	// selected with a backslash, e.g. "dbhost\SQLEXPRESS".
	Server string `yaml:"server"`

	// User is the login name.
	User string `yaml:"user"`

	// Password is the login password.
	Password string `yaml:"password"`

	// Database is the database selected once connected.
	Database string `yaml:"database" validate:"required_if=Transport mssql"`

	// Transport selects how statements reach the server.
	Transport string `yaml:"transport" validate:"oneof=mssql host"`

	// Namespace is the waPC namespace used by the host transport.
	Namespace string `yaml:"namespace" validate:"required_if=Transport host"`

	// Encrypt is passed to the native driver as the encrypt option.
	Encrypt string `yaml:"encrypt" validate:"omitempty,oneof=disable false true strict"`

	// TrustServerCertificate disables server certificate validation.
	TrustServerCertificate bool `yaml:"trust_server_certificate"`

	// AppName is reported to the server as the application name.
	AppName string `yaml:"app_name"`

	// DialTimeout bounds the TCP dial.
	DialTimeout time.Duration `yaml:"dial_timeout" validate:"gte=0"`

	// ConnectionTimeout bounds the login handshake. Zero means no limit.
	ConnectionTimeout time.Duration `yaml:"connection_timeout" validate:"gte=0"`

	// Lazy defers the first connection until a statement is executed.
	Lazy bool `yaml:"lazy"`

	// Log configures the logger built by the log package.
	Log LogSettings `yaml:"log"`
}

// LogSettings configures logging for database operations. Logging is
// disabled unless Enabled is set.
type LogSettings struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"omitempty,oneof=json console"`
	Console    bool   `yaml:"console"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`

	// Host forwards log entries to the Tarmac host logging capability.
	Host bool `yaml:"host"`
}

// LoadSettings reads a YAML settings file. ${VAR} references are expanded
// from the environment before decoding. Defaults are applied and the result
// is validated.
func LoadSettings(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &s); err != nil {
		return Settings{}, errors.Join(ErrInvalidSettings, err)
	}

	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// WithDefaults returns a copy of s with empty options set to their defaults.
func (s Settings) WithDefaults() Settings {
	if s.Transport == "" {
		s.Transport = TransportMSSQL
	}
	if s.Namespace == "" {
		s.Namespace = DefaultNamespace
	}
	if s.DialTimeout == 0 {
		s.DialTimeout = DefaultDialTimeout
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "json"
	}
	return s
}

// Validate checks s against its field constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Join(ErrInvalidSettings, err)
	}

	if s.Transport == TransportMSSQL && s.Host == "" && s.Server == "" {
		return errors.Join(ErrInvalidSettings, errors.New("host or server is required"))
	}

	return nil
}

// Runtime returns the host runtime configuration derived from s.
func (s Settings) Runtime() RuntimeConfig {
	if s.Namespace == "" {
		return RuntimeConfig{Namespace: DefaultNamespace}
	}
	return RuntimeConfig{Namespace: s.Namespace}
}

// Address returns the server address and instance name to dial. Server takes
// precedence over Host; an instance is split off at the first backslash.
func (s Settings) Address() (host string, instance string) {
	addr := s.Server
	if addr == "" {
		addr = s.Host
	}

	host, instance, _ = strings.Cut(addr, `\`)
	return host, instance
}
