package normalization

import (
	"strings"
	"unicode/utf8"
)

// ParseInputString trims surrounding whitespace and lowercases the input.
func ParseInputString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseEmail normalises an email address for storage and lookup.
func ParseEmail(email string) string {
	return ParseInputString(email)
}

// TrimText trims surrounding whitespace but keeps the caller's casing.
func TrimText(s string) string {
	return strings.TrimSpace(s)
}

// TruncateRunes cuts s to at most max runes and appends suffix when it had to cut.
func TruncateRunes(s string, max int, suffix string) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + suffix
}
