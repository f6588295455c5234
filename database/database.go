package database

import (
	"context"
	"errors"
	"time"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/cursor"
	dblog "github.com/tarmac-project/sqlsrv/log"
	"github.com/tarmac-project/sqlsrv/metrics"
	"github.com/tarmac-project/sqlsrv/mssql"
	"github.com/tarmac-project/sqlsrv/session"
	hostsql "github.com/tarmac-project/sqlsrv/sql"
	"github.com/tarmac-project/sqlsrv/statement"
	"go.uber.org/zap"
)

// Config controls how a Database connects and reports.
type Config struct {
	// Settings holds credentials and transport options. Defaults are applied
	// with Settings.WithDefaults.
	Settings sqlsrv.Settings

	// Dialer overrides the transport selected by Settings.Transport. Settings
	// are not validated when a Dialer is given.
	Dialer session.Dialer

	// Logger receives operation failures. Defaults to a logger built from
	// Settings.Log, which is a no-op unless enabled.
	Logger *zap.Logger

	// Recorder observes statements and connection attempts. Defaults to
	// metrics.Nop.
	Recorder metrics.Recorder
}

// Database executes statements over a single session.
type Database struct {
	session  *session.Session
	log      *zap.Logger
	recorder metrics.Recorder
}

// New creates a Database and, unless Settings.Lazy is set, connects it.
func New(ctx context.Context, cfg Config) (*Database, error) {
	settings := cfg.Settings.WithDefaults()

	dialer := cfg.Dialer
	if dialer == nil {
		if err := settings.Validate(); err != nil {
			return nil, err
		}
		dialer = dialerFor(settings)
	}

	logger := cfg.Logger
	if logger == nil {
		l, err := dblog.New(dblog.Config{Settings: settings.Log, Runtime: settings.Runtime()})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.Nop()
	}

	s, err := session.New(session.Config{
		Settings: settings,
		Dialer:   dialer,
		Logger:   logger,
		Recorder: recorder,
	})
	if err != nil {
		return nil, err
	}

	db := &Database{session: s, log: logger, recorder: recorder}
	if !settings.Lazy {
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func dialerFor(settings sqlsrv.Settings) session.Dialer {
	if settings.Transport == sqlsrv.TransportHost {
		return hostsql.Dialer{}
	}
	return mssql.Dialer{}
}

// State reports whether the Database currently holds a connection.
func (db *Database) State() session.State { return db.session.State() }

// Execute sends stmt over the session, connecting first if needed, and wraps
// the result in a cursor. SELECT and data-changing statements produce static
// cursors; raw statements produce forward-only cursors.
func (db *Database) Execute(ctx context.Context, stmt statement.Statement) (*cursor.Cursor, error) {
	return db.execute(ctx, stmt, "")
}

func (db *Database) execute(ctx context.Context, stmt statement.Statement, table string) (*cursor.Cursor, error) {
	fields := []zap.Field{zap.Stringer("kind", stmt.Kind)}
	if table != "" {
		fields = append(fields, zap.String("table", table))
	}

	conn, err := db.session.EnsureConnected(ctx)
	if err != nil {
		db.log.Error("Unable to execute statement without a connection", append(fields, zap.Error(err))...)
		return nil, err
	}

	db.log.Debug("Executing statement", append(fields, zap.String("sql", stmt.Text))...)

	start := time.Now()
	rows, err := conn.Query(ctx, stmt)
	if err == nil {
		var c *cursor.Cursor
		c, err = cursor.New(&watchedRows{Rows: rows, session: db.session, conn: conn}, modeFor(stmt.Kind))
		if err == nil {
			db.recorder.ObserveStatement(stmt.Kind.String(), time.Since(start), nil)
			return c, nil
		}
	}
	db.recorder.ObserveStatement(stmt.Kind.String(), time.Since(start), err)

	if errors.Is(err, sqlsrv.ErrConnectionLost) {
		db.session.MarkLost()
	}
	if !errors.Is(err, sqlsrv.ErrFetch) {
		err = errors.Join(sqlsrv.ErrExecute, err)
	}

	db.log.Error("Statement failed", append(fields, zap.Error(err))...)
	return nil, err
}

// watchedRows marks the session lost when reading rows reports a lost
// connection. The session is only touched once the rows are closed, since
// the connection cannot be closed while rows still hold it.
type watchedRows struct {
	cursor.Rows
	session *session.Session
	conn    session.Conn
	lost    bool
}

func (r *watchedRows) MapScan(dest map[string]any) error {
	return r.watch(r.Rows.MapScan(dest))
}

func (r *watchedRows) Err() error { return r.watch(r.Rows.Err()) }

func (r *watchedRows) Close() error {
	err := r.watch(r.Rows.Close())
	if r.lost {
		r.session.Invalidate(r.conn)
	}
	return err
}

func (r *watchedRows) watch(err error) error {
	if errors.Is(err, sqlsrv.ErrConnectionLost) {
		r.lost = true
	}
	return err
}

func modeFor(kind statement.Kind) cursor.Mode {
	if kind == statement.KindRaw {
		return cursor.Forward
	}
	return cursor.Static
}

// Select reads columns from table. columns is a comma separated list of
// column names such as "id, name" or "*". Expressions, aliases and TOP
// clauses such as "COUNT(*)", "id AS userId" or "TOP 10 *" are rejected;
// send those through Raw.
func (db *Database) Select(ctx context.Context, columns, table string, where statement.Condition) (*cursor.Cursor, error) {
	stmt, err := statement.Select(columns, table, where)
	if err != nil {
		return nil, db.rejected(statement.KindSelect, table, err)
	}
	return db.execute(ctx, stmt, table)
}

// Insert adds one row to table, keeping the order of values for columns and
// values alike. It returns ErrTableNotFound without sending the insert when
// table does not exist.
func (db *Database) Insert(ctx context.Context, table string, values statement.Values) (*cursor.Cursor, error) {
	stmt, err := statement.Insert(table, values)
	if err != nil {
		return nil, db.rejected(statement.KindInsert, table, err)
	}

	exists, err := db.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		db.log.Debug("Skipping insert into missing table", zap.String("table", table))
		return nil, ErrTableNotFound
	}

	return db.execute(ctx, stmt, table)
}

// Update sets column to value on the rows of table matching where. A zero
// Condition updates every row.
func (db *Database) Update(ctx context.Context, table, column string, value any, where statement.Condition) (*cursor.Cursor, error) {
	stmt, err := statement.Update(table, column, value, where)
	if err != nil {
		return nil, db.rejected(statement.KindUpdate, table, err)
	}
	return db.execute(ctx, stmt, table)
}

// Delete removes the rows of table matching where. A zero Condition is
// rejected with statement.ErrMissingCondition.
func (db *Database) Delete(ctx context.Context, table string, where statement.Condition) (*cursor.Cursor, error) {
	stmt, err := statement.Delete(table, where)
	if err != nil {
		return nil, db.rejected(statement.KindDelete, table, err)
	}
	return db.execute(ctx, stmt, table)
}

// Raw executes caller SQL. Values should be passed as args behind `?`
// placeholders. The cursor is forward-only.
func (db *Database) Raw(ctx context.Context, query string, args ...any) (*cursor.Cursor, error) {
	return db.execute(ctx, statement.Raw(query, args...), "")
}

// Ping checks that the server is reachable, connecting first if needed.
func (db *Database) Ping(ctx context.Context) error {
	return db.session.Ping(ctx)
}

// Close releases the connection. The next operation reconnects. It returns
// sqlsrv.ErrNotConnected when no connection is held.
func (db *Database) Close() error {
	return db.session.Close()
}

func (db *Database) rejected(kind statement.Kind, table string, err error) error {
	db.log.Error("Statement rejected", zap.Stringer("kind", kind), zap.String("table", table), zap.Error(err))
	return err
}
