package transcript

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/af-corp/thoth/internal/youtube"
)

func segs(texts ...string) []youtube.Segment {
	out := make([]youtube.Segment, len(texts))
	for i, t := range texts {
		out[i] = youtube.Segment{Text: t}
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name      string
		in        []youtube.Segment
		max       int
		want      string
		truncated bool
	}{
		{"joins with single spaces", segs("hello", "world"), 100, "hello world", false},
		{"skips blank segments", segs("a", "  ", "", "b"), 100, "a b", false},
		{"trims segments", segs("  a ", "\nb\n"), 100, "a b", false},
		{"empty", segs("", " "), 100, "", false},
		{"no segments", nil, 100, "", false},
		{"truncates", segs("abcdef", "ghij"), 5, "abcde", true},
		{"exact length not truncated", segs("abc", "d"), 5, "abc d", false},
		{"truncates by characters", segs("안녕하세요", "세계"), 3, "안녕하", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := Assemble(tt.in, tt.max)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("Assemble() = (%q, %v), want (%q, %v)", got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

func TestAssemble_LongTranscriptCapped(t *testing.T) {
	var in []youtube.Segment
	for i := 0; i < 5000; i++ {
		in = append(in, youtube.Segment{Text: "segment"})
	}
	got, truncated := Assemble(in, 8000)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if n := utf8.RuneCountInString(got); n > 8000 {
		t.Errorf("length = %d, want <= 8000", n)
	}
	if !strings.HasPrefix(got, "segment segment") {
		t.Error("order not preserved")
	}
}
