package validate

import (
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxRunes reports whether value fits in max characters. Lengths are counted
// in runes so Japanese text gets the same limit as ASCII.
func MaxRunes(value string, max int) bool {
	return utf8.RuneCountInString(value) <= max
}
