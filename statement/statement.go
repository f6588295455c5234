package statement

import "errors"

var (
	// ErrInvalidIdentifier indicates a table or column name outside the accepted grammar.
	ErrInvalidIdentifier = errors.New("identifier is invalid")

	// ErrInvalidColumnType indicates a column type descriptor that could end the statement.
	ErrInvalidColumnType = errors.New("column type is invalid")

	// ErrMissingCondition is returned by Delete when no condition is given.
	ErrMissingCondition = errors.New("condition is required")

	// ErrNoValues is returned by Insert when the value list is empty.
	ErrNoValues = errors.New("no values to insert")

	// ErrNoColumns is returned by CreateTable when the column spec is empty.
	ErrNoColumns = errors.New("no columns defined")

	// ErrArgCount indicates that placeholders and arguments do not pair up.
	ErrArgCount = errors.New("placeholder and argument count mismatch")

	// ErrUnsupportedValue indicates an argument Literal cannot render.
	ErrUnsupportedValue = errors.New("value type is unsupported")
)

// Kind identifies the verb a Statement was built for.
type Kind uint8

const (
	KindRaw Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCreate
)

var kindNames = [...]string{
	KindRaw:    "raw",
	KindSelect: "select",
	KindInsert: "insert",
	KindUpdate: "update",
	KindDelete: "delete",
	KindCreate: "create",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ReturnsRows reports whether statements of this kind produce a result set.
func (k Kind) ReturnsRows() bool {
	return k == KindSelect || k == KindRaw
}

// Statement is a complete unit of SQL text plus the values bound to its
// `?` placeholders, in order.
type Statement struct {
	Kind Kind
	Text string
	Args []any
}

func (s Statement) String() string { return s.Text }

// Value pairs a column with the value written to it.
type Value struct {
	Column string
	Value  any
}

// Values is an ordered list of column values. Column and value lists of the
// generated INSERT follow this order.
type Values []Value

// ColumnDef declares one column of a new table. Type is a raw DDL fragment
// such as "INT NOT NULL" or "VARCHAR(50)".
type ColumnDef struct {
	Name string
	Type string
}

// ColumnSpec is the ordered column list of a new table.
type ColumnSpec []ColumnDef
