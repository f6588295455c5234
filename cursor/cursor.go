package cursor

import (
	"errors"

	"github.com/tarmac-project/sqlsrv"
)

var (
	// ErrReleased is returned when a cursor is used after Release.
	ErrReleased = errors.New("cursor has been released")

	// ErrNotScrollable is returned by RowCount on a forward-only cursor.
	ErrNotScrollable = errors.New("row count requires a scrollable cursor")
)

// Rows is the driver row stream a Cursor reads from. *sqlx.Rows satisfies it.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	MapScan(dest map[string]any) error
	Err() error
	Close() error
}

// Mode selects how a Cursor reads its rows.
type Mode uint8

const (
	// Forward streams rows from the driver one at a time.
	Forward Mode = iota

	// Static reads every row up front and supports RowCount.
	Static
)

// Row maps column names to values. Character and binary data are returned
// as strings.
type Row map[string]any

// Cursor is the result set of one statement execution. A Cursor is not safe
// for concurrent use.
type Cursor struct {
	mode    Mode
	rows    Rows
	columns []string

	// buffered holds every row of a static cursor, or the row read ahead by
	// HasRows on a forward cursor.
	buffered []Row
	pos      int

	seen     bool
	err      error
	released bool
}

// New wraps rows in a Cursor. In Static mode rows are read and closed before
// New returns.
func New(rows Rows, mode Mode) (*Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, errors.Join(sqlsrv.ErrFetch, err)
	}

	c := &Cursor{mode: mode, rows: rows, columns: columns}
	if mode != Static {
		return c, nil
	}

	for {
		row, err := c.next()
		if err != nil {
			_ = c.Release()
			return nil, err
		}
		if row == nil {
			break
		}
		c.buffered = append(c.buffered, row)
	}

	return c, nil
}

// Mode returns the mode the cursor was created with.
func (c *Cursor) Mode() Mode { return c.mode }

// Columns returns the result column names in result order.
func (c *Cursor) Columns() []string { return c.columns }

// HasRows reports whether the result contains at least one row. It returns
// false when reading ahead fails; the failure is available from Err.
func (c *Cursor) HasRows() bool {
	if c.released {
		return false
	}
	if c.mode == Static {
		return len(c.buffered) > 0
	}
	if c.seen {
		return true
	}

	row, err := c.next()
	if err != nil || row == nil {
		return false
	}
	c.buffered = append(c.buffered, row)
	return true
}

// Fetch returns the next row. It returns a nil Row and nil error once the
// result is exhausted.
func (c *Cursor) Fetch() (Row, error) {
	if c.released {
		return nil, ErrReleased
	}

	if c.pos < len(c.buffered) {
		row := c.buffered[c.pos]
		c.pos++
		if c.mode == Forward && c.pos == len(c.buffered) {
			c.buffered, c.pos = c.buffered[:0], 0
		}
		return row, nil
	}

	if c.mode == Static {
		return nil, nil
	}
	return c.next()
}

// RowCount returns the number of rows in the result. Only static cursors
// can answer.
func (c *Cursor) RowCount() (int, error) {
	if c.released {
		return 0, ErrReleased
	}
	if c.mode != Static {
		return 0, ErrNotScrollable
	}
	return len(c.buffered), nil
}

// Err returns the first error met while reading rows.
func (c *Cursor) Err() error { return c.err }

// Release frees the driver resources held by the cursor. Calling Release
// more than once is harmless.
func (c *Cursor) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	c.buffered = nil

	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

// next reads one row from the driver. A nil Row with a nil error means the
// driver rows are exhausted; they are closed at that point.
func (c *Cursor) next() (Row, error) {
	if c.rows == nil {
		return nil, c.err
	}

	if !c.rows.Next() {
		err := c.rows.Err()
		closeErr := c.rows.Close()
		c.rows = nil
		if err = errors.Join(err, closeErr); err != nil {
			c.err = errors.Join(sqlsrv.ErrFetch, err)
			return nil, c.err
		}
		return nil, nil
	}

	m := make(map[string]any, len(c.columns))
	if err := c.rows.MapScan(m); err != nil {
		c.err = errors.Join(sqlsrv.ErrFetch, err)
		return nil, c.err
	}
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}

	c.seen = true
	return Row(m), nil
}
