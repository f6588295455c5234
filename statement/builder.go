package statement

import (
	"fmt"
	"strings"
)

// Condition is a WHERE fragment without the keyword plus the values bound
// to its placeholders.
type Condition struct {
	Clause string
	Args   []any
}

// Where creates a Condition. A leading WHERE keyword is stripped so that
// fragments written either way behave the same for every verb.
func Where(clause string, args ...any) Condition {
	c := strings.TrimSpace(clause)
	if len(c) >= 5 && strings.EqualFold(c[:5], "where") && (len(c) == 5 || isKeywordBoundary(c[5])) {
		c = strings.TrimSpace(c[5:])
	}
	return Condition{Clause: c, Args: args}
}

// IsZero reports whether the condition filters nothing.
func (c Condition) IsZero() bool { return c.Clause == "" }

func isKeywordBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '(':
		return true
	}
	return false
}

// Select builds "SELECT {columns} FROM {table}" followed by the condition
// when one is given. columns must be plain or bracketed column names, or *;
// expressions such as COUNT(*) belong in Raw.
func Select(columns, table string, where Condition) (Statement, error) {
	if err := checkColumnList(columns); err != nil {
		return Statement{}, err
	}
	if err := checkIdentifier("table", table); err != nil {
		return Statement{}, err
	}

	text := "SELECT " + columns + " FROM " + table
	if !where.IsZero() {
		text += " WHERE " + where.Clause
	}

	return build(KindSelect, text, where.Args)
}

// Insert builds "INSERT INTO {table} (c1,c2) VALUES (?,?)" keeping the order
// of values for both lists.
func Insert(table string, values Values) (Statement, error) {
	if err := checkIdentifier("table", table); err != nil {
		return Statement{}, err
	}
	if len(values) == 0 {
		return Statement{}, ErrNoValues
	}

	cols := make([]string, len(values))
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		if err := checkIdentifier("column", v.Column); err != nil {
			return Statement{}, err
		}
		cols[i] = v.Column
		marks[i] = "?"
		args[i] = v.Value
	}

	text := "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES (" + strings.Join(marks, ",") + ")"
	return build(KindInsert, text, args)
}

// Update builds "UPDATE {table} SET {column} = ?" terminated by ";", with the
// condition in between when one is given.
func Update(table, column string, value any, where Condition) (Statement, error) {
	if err := checkIdentifier("table", table); err != nil {
		return Statement{}, err
	}
	if err := checkIdentifier("column", column); err != nil {
		return Statement{}, err
	}

	text := "UPDATE " + table + " SET " + column + " = ?"
	if !where.IsZero() {
		text += " WHERE " + where.Clause
	}
	text += ";"

	args := make([]any, 0, len(where.Args)+1)
	args = append(args, value)
	args = append(args, where.Args...)
	return build(KindUpdate, text, args)
}

// Delete builds "DELETE FROM {table} WHERE {condition}". An empty condition
// is rejected; use Where("1=1") to delete every row.
func Delete(table string, where Condition) (Statement, error) {
	if err := checkIdentifier("table", table); err != nil {
		return Statement{}, err
	}
	if where.IsZero() {
		return Statement{}, ErrMissingCondition
	}

	return build(KindDelete, "DELETE FROM "+table+" WHERE "+where.Clause, where.Args)
}

// CreateTable builds "CREATE TABLE {name} ( c1 T1, c2 T2 )" in spec order.
func CreateTable(name string, spec ColumnSpec) (Statement, error) {
	if err := checkIdentifier("table", name); err != nil {
		return Statement{}, err
	}
	if len(spec) == 0 {
		return Statement{}, ErrNoColumns
	}

	defs := make([]string, len(spec))
	for i, c := range spec {
		if err := checkIdentifier("column", c.Name); err != nil {
			return Statement{}, err
		}
		if err := checkColumnType(c.Type); err != nil {
			return Statement{}, err
		}
		defs[i] = c.Name + " " + strings.TrimSpace(c.Type)
	}

	return build(KindCreate, "CREATE TABLE "+name+" ( "+strings.Join(defs, ", ")+" )", nil)
}

// ObjectID builds the catalog lookup used to check that a user table exists.
// The single result column is unnamed.
func ObjectID(table string) (Statement, error) {
	if err := checkIdentifier("table", table); err != nil {
		return Statement{}, err
	}
	return build(KindSelect, "SELECT OBJECT_ID(?, 'U')", []any{table})
}

// Raw wraps caller SQL as is. No validation is performed.
func Raw(query string, args ...any) Statement {
	return Statement{Kind: KindRaw, Text: query, Args: args}
}

func build(kind Kind, text string, args []any) (Statement, error) {
	if n := len(placeholders(text)); n != len(args) {
		return Statement{}, fmt.Errorf("%w: %d placeholders, %d arguments", ErrArgCount, n, len(args))
	}
	return Statement{Kind: kind, Text: text, Args: args}, nil
}
