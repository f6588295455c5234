package mssql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/cursor"
	"github.com/tarmac-project/sqlsrv/session"
	"github.com/tarmac-project/sqlsrv/statement"
)

// DriverName is the database/sql driver registered by go-mssqldb.
const DriverName = "sqlserver"

// OpenFunc creates the sqlx handle for a data source name.
type OpenFunc func(ctx context.Context, driverName, dsn string) (*sqlx.DB, error)

// Dialer opens native SQL Server connections.
type Dialer struct {
	// Open overrides how the sqlx handle is created. Defaults to
	// sqlx.ConnectContext, which also verifies the login.
	Open OpenFunc
}

// Ensure Dialer satisfies the session.Dialer interface at compile time.
var _ session.Dialer = Dialer{}

// Dial opens a dedicated connection using settings.
func (d Dialer) Dial(ctx context.Context, settings sqlsrv.Settings) (session.Conn, error) {
	open := d.Open
	if open == nil {
		open = sqlx.ConnectContext
	}

	db, err := open(ctx, DriverName, DSN(settings))
	if err != nil {
		return nil, Translate(err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, Translate(err)
	}

	return &Conn{db: db, conn: conn}, nil
}

// DSN builds the sqlserver:// data source name for settings.
func DSN(settings sqlsrv.Settings) string {
	host, instance := settings.Address()
	if settings.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(settings.Port))
	}

	q := url.Values{}
	if settings.Database != "" {
		q.Set("database", settings.Database)
	}
	if settings.Encrypt != "" {
		q.Set("encrypt", settings.Encrypt)
	}
	if settings.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	if settings.AppName != "" {
		q.Set("app name", settings.AppName)
	}
	if settings.DialTimeout > 0 {
		q.Set("dial timeout", seconds(settings.DialTimeout))
	}
	if settings.ConnectionTimeout > 0 {
		q.Set("connection timeout", seconds(settings.ConnectionTimeout))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     host,
		Path:     instance,
		RawQuery: q.Encode(),
	}
	if settings.User != "" {
		u.User = url.UserPassword(settings.User, settings.Password)
	}

	return u.String()
}

// seconds renders d in whole seconds, rounding up. The driver reads zero as
// no timeout, so a positive d never renders below one.
func seconds(d time.Duration) string {
	n := int64((d + time.Second - 1) / time.Second)
	if n < 1 {
		n = 1
	}
	return strconv.FormatInt(n, 10)
}

// Conn is a dedicated SQL Server connection.
type Conn struct {
	db   *sqlx.DB
	conn *sqlx.Conn
}

// Query binds the placeholders of stmt as @p1..@pN and executes it.
func (c *Conn) Query(ctx context.Context, stmt statement.Statement) (cursor.Rows, error) {
	rows, err := c.conn.QueryxContext(ctx, statement.Bind(stmt, namedParam), stmt.Args...)
	if err != nil {
		return nil, Translate(err)
	}
	return &translatedRows{rows}, nil
}

func namedParam(n int) string { return "@p" + strconv.Itoa(n) }

// translatedRows reports errors raised while reading rows the same way as
// errors raised by Query.
type translatedRows struct {
	*sqlx.Rows
}

func (r *translatedRows) Columns() ([]string, error) {
	cols, err := r.Rows.Columns()
	return cols, Translate(err)
}

func (r *translatedRows) MapScan(dest map[string]any) error {
	return Translate(r.Rows.MapScan(dest))
}

func (r *translatedRows) Err() error { return Translate(r.Rows.Err()) }

func (r *translatedRows) Close() error { return Translate(r.Rows.Close()) }

// Ping verifies the connection.
func (c *Conn) Ping(ctx context.Context) error {
	return Translate(c.conn.PingContext(ctx))
}

// Close releases the connection and its handle.
func (c *Conn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}

// Translate converts a driver error into an ErrorSet.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var set sqlsrv.ErrorSet
	if e, ok := serverError(err); ok {
		all := e.All
		if len(all) == 0 {
			all = []mssqldb.Error{e}
		}
		for _, m := range all {
			set = append(set, sqlsrv.DriverError{
				Code:    m.Number,
				State:   strconv.Itoa(int(m.State)),
				Message: m.Message,
			})
		}
	} else {
		set = sqlsrv.ErrorSet{{Message: err.Error()}}
	}

	if connectionLost(err) {
		return errors.Join(sqlsrv.ErrConnectionLost, set)
	}
	return set
}

func serverError(err error) (mssqldb.Error, bool) {
	var e mssqldb.Error
	if errors.As(err, &e) {
		return e, true
	}

	var pe *mssqldb.Error
	if errors.As(err, &pe) && pe != nil {
		return *pe, true
	}

	return mssqldb.Error{}, false
}

func connectionLost(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne)
}
