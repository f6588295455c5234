package statement

import (
	"fmt"
	"regexp"
	"strings"
)

const identPart = `(?:\[(?:[^\]]|\]\])+\]|[\p{L}_#][\p{L}\p{N}_@$#]*)`

var (
	// isIdentifier accepts plain, temporary and bracketed names qualified by
	// up to three prefixes (server.database.schema.object).
	isIdentifier = regexp.MustCompile(`^` + identPart + `(?:\.` + identPart + `){0,3}$`)

	// isColumnItem accepts a select list item: a column name, * or alias.*.
	isColumnItem = regexp.MustCompile(`^(?:` + identPart + `\.){0,3}(?:\*|` + identPart + `)$`)
)

func checkIdentifier(what, name string) error {
	if !isIdentifier.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, what, name)
	}
	return nil
}

func checkColumnList(list string) error {
	items := strings.Split(list, ",")
	for _, item := range items {
		if !isColumnItem.MatchString(strings.TrimSpace(item)) {
			return fmt.Errorf("%w: column list %q", ErrInvalidIdentifier, list)
		}
	}
	return nil
}

func checkColumnType(t string) error {
	if strings.TrimSpace(t) == "" || strings.ContainsAny(t, ";") ||
		strings.Contains(t, "--") || strings.Contains(t, "/*") {
		return fmt.Errorf("%w: %q", ErrInvalidColumnType, t)
	}
	return nil
}
