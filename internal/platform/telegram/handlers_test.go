package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 3))
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	// 20 emoji is 80 bytes; a 10-character cut must land on a rune boundary.
	s := strings.Repeat("🎯", 20)
	got := truncate(s, 10)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("🎯", 10)+"…", got)

	// A multi-byte string within the character limit passes through whole.
	assert.Equal(t, "héllo🎯", truncate("héllo🎯", 6))
}
