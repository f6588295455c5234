package database

import (
	"context"
	"fmt"

	"github.com/tarmac-project/sqlsrv"
	"github.com/tarmac-project/sqlsrv/cursor"
	"github.com/tarmac-project/sqlsrv/statement"
)

var (
	// ErrTableNotFound is returned by Insert when the target table does not exist.
	ErrTableNotFound = fmt.Errorf("%w: table does not exist", sqlsrv.ErrPrecondition)

	// ErrTableExists is returned by CreateTable when the table already exists.
	ErrTableExists = fmt.Errorf("%w: table already exists", sqlsrv.ErrPrecondition)
)

// TableExists reports whether name is a user table in the current database.
func (db *Database) TableExists(ctx context.Context, name string) (bool, error) {
	stmt, err := statement.ObjectID(name)
	if err != nil {
		return false, db.rejected(statement.KindSelect, name, err)
	}

	c, err := db.execute(ctx, stmt, name)
	if err != nil {
		return false, err
	}
	defer c.Release()

	row, err := c.Fetch()
	if err != nil || row == nil {
		return false, err
	}

	// OBJECT_ID yields one unnamed column, so its key is usually "".
	cols := c.Columns()
	if len(cols) == 0 {
		return false, nil
	}
	return present(row[cols[0]]), nil
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	default:
		return true
	}
}

// CreateTable creates name with the columns of spec, in order. It returns
// ErrTableExists without sending the statement when the table exists.
func (db *Database) CreateTable(ctx context.Context, name string, spec statement.ColumnSpec) (*cursor.Cursor, error) {
	stmt, err := statement.CreateTable(name, spec)
	if err != nil {
		return nil, db.rejected(statement.KindCreate, name, err)
	}

	exists, err := db.TableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTableExists
	}

	return db.execute(ctx, stmt, name)
}
