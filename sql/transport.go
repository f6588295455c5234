package sql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/cursor"
	"github.com/tarmac-project/sqlsrv/session"
	"github.com/tarmac-project/sqlsrv/statement"
)

// Dialer opens sessions on the host sql capability. The host holds the
// credentials, so only the namespace of the settings is used.
type Dialer struct {
	// HostCall overrides the waPC host function.
	HostCall HostCall
}

// Ensure Dialer satisfies the session.Dialer interface at compile time.
var _ session.Dialer = Dialer{}

// Dial creates a host-backed Conn and verifies it with a ping.
func (d Dialer) Dial(ctx context.Context, settings sqlsrv.Settings) (session.Conn, error) {
	client, err := New(Config{Runtime: settings.Runtime(), HostCall: d.HostCall})
	if err != nil {
		return nil, err
	}

	conn := &Conn{client: client}
	if err := conn.Ping(ctx); err != nil {
		return nil, err
	}
	return conn, nil
}

// Conn sends inlined statements to the host.
type Conn struct {
	client *Client
}

// NewConn wraps an existing Client.
func NewConn(client *Client) *Conn {
	return &Conn{client: client}
}

// Query inlines stmt and dispatches it to the host query or exec function.
func (c *Conn) Query(ctx context.Context, stmt statement.Statement) (cursor.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := statement.Inline(stmt)
	if err != nil {
		return nil, err
	}

	if !stmt.Kind.ReturnsRows() {
		if _, err := c.client.Exec(text); err != nil {
			return nil, hostFailure(err)
		}
		return &jsonRows{}, nil
	}

	res, err := c.client.Query(text)
	if err != nil {
		return nil, hostFailure(err)
	}

	rows, err := decodeRows(res)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping runs a trivial query through the host.
func (c *Conn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.client.Query("SELECT 1"); err != nil {
		return hostFailure(err)
	}
	return nil
}

// Close releases the client.
func (c *Conn) Close() error {
	return c.client.Close()
}

// hostFailure marks failed host calls as a lost connection, so the session
// dials again on the next statement.
func hostFailure(err error) error {
	if errors.Is(err, sqlsrv.ErrHostCall) && !errors.Is(err, sqlsrv.ErrHostError) {
		return errors.Join(sqlsrv.ErrConnectionLost, err)
	}
	return err
}

var errScanNoRow = errors.New("scan called without a current row")

// jsonRows is a cursor.Rows over decoded host row data.
type jsonRows struct {
	columns []string
	rows    []map[string]any
	pos     int
	closed  bool
}

func decodeRows(res QueryResult) (*jsonRows, error) {
	r := &jsonRows{columns: res.Columns}
	if len(bytes.TrimSpace(res.Data)) == 0 {
		return r, nil
	}

	dec := json.NewDecoder(bytes.NewReader(res.Data))
	dec.UseNumber()
	if err := dec.Decode(&r.rows); err != nil {
		return nil, errors.Join(sqlsrv.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}

	for _, row := range r.rows {
		for k, v := range row {
			if n, ok := v.(json.Number); ok {
				row[k] = number(n)
			}
		}
	}

	if len(r.columns) == 0 && len(r.rows) > 0 {
		for k := range r.rows[0] {
			r.columns = append(r.columns, k)
		}
		sort.Strings(r.columns)
	}
	return r, nil
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func (r *jsonRows) Columns() ([]string, error) {
	return r.columns, nil
}

func (r *jsonRows) Next() bool {
	if r.closed || r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *jsonRows) MapScan(dest map[string]any) error {
	if r.pos == 0 || r.pos > len(r.rows) {
		return errScanNoRow
	}
	row := r.rows[r.pos-1]
	for _, c := range r.columns {
		dest[c] = row[c]
	}
	return nil
}

func (r *jsonRows) Err() error { return nil }

func (r *jsonRows) Close() error {
	r.closed = true
	return nil
}
