// Package sqlutil validates and quotes MySQL identifiers that come from configuration.
package sqlutil

import (
	"fmt"
	"strings"
)

// MaxIdentifierLength is MySQL's limit for table names.
const MaxIdentifierLength = 64

// InvalidIdentifierError rejects a configured name that is not 1-64 ASCII letters,
// digits or underscores.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q (must be 1-%d alphanumeric characters or underscores)", e.Name, MaxIdentifierLength)
}

// IsValidIdentifier reports whether name can be used as a table name without escaping.
func IsValidIdentifier(name string) bool {
	if name == "" || len(name) > MaxIdentifierLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case c == '_', c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// QuoteIdentifier backtick-quotes name, doubling embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteIdentifierSafe quotes name after checking it with IsValidIdentifier.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}
