package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/af-corp/thoth/internal/youtube"
)

// Assemble joins non-empty segment texts with single spaces and truncates the
// result to maxChars characters. It reports whether truncation happened.
func Assemble(segments []youtube.Segment, maxChars int) (string, bool) {
	var sb strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}

	text := sb.String()
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	return truncateRunes(text, maxChars), true
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
