package util

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// SafeFilename keeps only the final path element of an uploaded name so it
// cannot leave the upload directory. Blank and dot names become fallback.
func SafeFilename(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(strings.TrimSpace(name))
	switch base {
	case "", ".", "..", "/":
		return fallback
	}
	return base
}

// TruncateRunes cuts s to at most n runes without splitting a character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n])
}
