package lessongen

import (
	"strings"
	"unicode/utf8"
)

// preview truncates s to at most n runes, marking the cut.
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
