package bot

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitTextShort(t *testing.T) {
	parts := splitText("hello", 10)

	if len(parts) != 1 || parts[0] != "hello" {
		t.Errorf("got %v, want [hello]", parts)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	parts := splitText(text, 15)

	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3: %v", len(parts), parts)
	}

	for _, part := range parts {
		if len(part) > 15 {
			t.Errorf("part over limit: %q", part)
		}

		if strings.HasPrefix(part, "\n") || strings.HasSuffix(part, "\n") {
			t.Errorf("part has boundary newline: %q", part)
		}
	}
}

func TestSplitTextKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 100)
	parts := splitText(text, 31)

	var total int

	for _, part := range parts {
		if !utf8.ValidString(part) {
			t.Errorf("part split mid-rune: %q", part)
		}

		if len(part) > 31 {
			t.Errorf("part over limit: %d bytes", len(part))
		}

		total += utf8.RuneCountInString(part)
	}

	if total != 100 {
		t.Errorf("lost content: %d runes, want 100", total)
	}
}
