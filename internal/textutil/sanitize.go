package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeFileName makes a title usable as a file name on macOS, Linux and
// Windows-formatted shared drives. Path separators, colons and asterisks
// become dashes; quotes, angle brackets, pipes, question marks and control
// characters are dropped.
func SanitizeFileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			return '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	return strings.TrimSpace(clean)
}

// Truncate returns at most limit runes of value. Prompt excerpts and error
// snippets go through it so multi-byte text is never split mid-rune.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	n := 0
	for idx := range value {
		if n == limit {
			return value[:idx]
		}
		n++
	}
	return value
}
