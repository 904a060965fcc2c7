package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.pdf`, "notes.pdf"},
		{"  spaced.pdf ", "spaced.pdf"},
		{"", "document.pdf"},
		{"..", "document.pdf"},
		{"/", "document.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFilename(tt.in, "document.pdf"), tt.in)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "пр", TruncateRunes("привет", 2))
}
