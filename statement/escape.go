package statement

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// timeLayout is accepted by datetime, datetime2 and datetimeoffset columns.
const timeLayout = "2006-01-02T15:04:05.999"

// Quote renders s as a Unicode string literal, doubling embedded quotes.
func Quote(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders v as a T-SQL literal. It is the only function that turns
// caller values into SQL text.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case driver.Valuer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "NULL", nil
		}
		dv, err := x.Value()
		if err != nil {
			return "", fmt.Errorf("%w: %T: %w", ErrUnsupportedValue, v, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
		}
		return Literal(dv)
	case []byte:
		if x == nil {
			return "NULL", nil
		}
		return "0x" + hex.EncodeToString(x), nil
	case time.Time:
		return "'" + x.Format(timeLayout) + "'", nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return Quote(rv.String()), nil
	case reflect.Bool:
		if rv.Bool() {
			return "1", nil
		}
		return "0", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
		}
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return strconv.FormatFloat(f, 'g', -1, bits), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return Literal(rv.Elem().Interface())
	}

	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// Inline returns the text of s with every placeholder replaced by the
// literal of its argument.
func Inline(s Statement) (string, error) {
	pos := placeholders(s.Text)
	if len(pos) != len(s.Args) {
		return "", fmt.Errorf("%w: %d placeholders, %d arguments", ErrArgCount, len(pos), len(s.Args))
	}
	if len(pos) == 0 {
		return s.Text, nil
	}

	var b strings.Builder
	last := 0
	for i, p := range pos {
		lit, err := Literal(s.Args[i])
		if err != nil {
			return "", fmt.Errorf("argument %d: %w", i+1, err)
		}
		b.WriteString(s.Text[last:p])
		b.WriteString(lit)
		last = p + 1
	}
	b.WriteString(s.Text[last:])

	return b.String(), nil
}

// Bind returns the text of s with the n-th placeholder, counting from one,
// replaced by mark(n). Question marks inside literals, quoted identifiers
// and comments are left alone.
func Bind(s Statement, mark func(n int) string) string {
	pos := placeholders(s.Text)
	if len(pos) == 0 {
		return s.Text
	}

	var b strings.Builder
	last := 0
	for i, p := range pos {
		b.WriteString(s.Text[last:p])
		b.WriteString(mark(i + 1))
		last = p + 1
	}
	b.WriteString(s.Text[last:])

	return b.String()
}

// placeholders returns the offsets of `?` outside string literals, quoted
// identifiers and comments.
func placeholders(text string) []int {
	var pos []int
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '?':
			pos = append(pos, i)
		case c == '\'':
			i = skipQuoted(text, i, '\'')
		case c == '"':
			i = skipQuoted(text, i, '"')
		case c == '[':
			i = skipQuoted(text, i, ']')
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			if end := strings.IndexByte(text[i:], '\n'); end >= 0 {
				i += end
			} else {
				i = len(text)
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			if end := strings.Index(text[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(text)
			}
		}
	}
	return pos
}

// skipQuoted returns the offset of the closing quote of the quoted section
// starting at open. A doubled closing quote is an escape.
func skipQuoted(text string, open int, closing byte) int {
	for i := open + 1; i < len(text); i++ {
		if text[i] != closing {
			continue
		}
		if i+1 < len(text) && text[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(text)
}
