package session

import (
	"context"
	"errors"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/cursor"
	"github.com/tarmac-project/sqlsrv/metrics"
	"github.com/tarmac-project/sqlsrv/statement"
	"go.uber.org/zap"
)

// ErrNoDialer is returned by New when Config.Dialer is nil.
var ErrNoDialer = errors.New("dialer is required")

// Conn is a live handle to a database session.
type Conn interface {
	// Query sends stmt to the server and returns its row stream.
	Query(ctx context.Context, stmt statement.Statement) (cursor.Rows, error)

	// Ping checks that the handle is still usable.
	Ping(ctx context.Context) error

	// Close releases the handle.
	Close() error
}

// Dialer opens a Conn.
type Dialer interface {
	Dial(ctx context.Context, settings sqlsrv.Settings) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, settings sqlsrv.Settings) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, settings sqlsrv.Settings) (Conn, error) {
	return f(ctx, settings)
}

// State is the connection state of a Session.
type State uint8

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Config controls how a Session connects.
type Config struct {
	// Settings holds the credentials used for every dial.
	Settings sqlsrv.Settings

	// Dialer opens handles.
	Dialer Dialer

	// Logger receives connection events. Defaults to a no-op logger.
	Logger *zap.Logger

	// Recorder observes connection attempts. Defaults to metrics.Nop.
	Recorder metrics.Recorder
}

// Session owns at most one database handle.
type Session struct {
	settings sqlsrv.Settings
	dialer   Dialer
	log      *zap.Logger
	recorder metrics.Recorder

	conn  Conn
	state State
	dials int
}

// New creates a disconnected Session.
func New(cfg Config) (*Session, error) {
	if cfg.Dialer == nil {
		return nil, ErrNoDialer
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.Nop()
	}

	host, instance := cfg.Settings.Address()
	return &Session{
		settings: cfg.Settings,
		dialer:   cfg.Dialer,
		log: log.With(
			zap.String("server", host),
			zap.String("instance", instance),
			zap.String("database", cfg.Settings.Database),
		),
		recorder: recorder,
	}, nil
}

// State returns the current connection state.
func (s *Session) State() State { return s.state }

// Connect opens a new handle, replacing the current one.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		s.drop()
	}

	reconnect := s.dials > 0
	conn, err := s.dialer.Dial(ctx, s.settings)
	s.recorder.ObserveConnect(reconnect, err)
	if err != nil {
		s.log.Error("Failed to connect to database", zap.Bool("reconnect", reconnect), zap.Error(err))
		if errors.Is(err, sqlsrv.ErrConnect) {
			return err
		}
		return errors.Join(sqlsrv.ErrConnect, err)
	}

	s.conn = conn
	s.state = Connected
	s.dials++
	s.log.Debug("Connected to database", zap.Bool("reconnect", reconnect))
	return nil
}

// EnsureConnected returns the live handle, dialing once if the session is
// disconnected.
func (s *Session) EnsureConnected(ctx context.Context) (Conn, error) {
	if s.state == Connected {
		return s.conn, nil
	}

	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s.conn, nil
}

// MarkLost discards a handle that the transport reported as unusable. The
// next EnsureConnected dials again.
func (s *Session) MarkLost() {
	if s.state != Connected {
		return
	}
	s.log.Warn("Database connection lost")
	s.drop()
}

// Invalidate marks the session lost if conn is still its current handle. It
// is a no-op for a handle that was already replaced.
func (s *Session) Invalidate(conn Conn) {
	if s.conn != conn {
		return
	}
	s.MarkLost()
}

// Ping checks the handle, connecting first if needed.
func (s *Session) Ping(ctx context.Context) error {
	conn, err := s.EnsureConnected(ctx)
	if err != nil {
		return err
	}

	if err := conn.Ping(ctx); err != nil {
		if errors.Is(err, sqlsrv.ErrConnectionLost) {
			s.MarkLost()
		}
		return err
	}
	return nil
}

// Close releases the handle. It returns sqlsrv.ErrNotConnected when the
// session holds no handle.
func (s *Session) Close() error {
	if s.state != Connected {
		return sqlsrv.ErrNotConnected
	}

	err := s.conn.Close()
	s.conn = nil
	s.state = Disconnected
	s.recorder.ObserveDisconnect()
	if err != nil {
		s.log.Warn("Failed to close database connection", zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) drop() {
	if err := s.conn.Close(); err != nil {
		s.log.Debug("Ignoring close error on discarded connection", zap.Error(err))
	}
	s.conn = nil
	s.state = Disconnected
	s.recorder.ObserveDisconnect()
}
