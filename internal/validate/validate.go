// Package validate sanitizes and bounds user-supplied text before it
// reaches storage or rendered email bodies.
package validate

import (
	"fmt"
	"strings"
	"unicode"
)

// Field length bounds for requisition text.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
	MaxReasonLength      = 1000
)

// CleanText trims whitespace and removes control characters except
// newline, carriage return, and tab.
func CleanText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s))
}

// StringLength validates that a string is within the given length
// constraints.
func StringLength(field, value string, min, max int) error {
	length := len(value)

	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters long", field, min)
	}

	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters long", field, max)
	}

	return nil
}
