package utils

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"truncated", "abcdefgh", 6, "abc..."},
		{"tiny width", "abcdefgh", 2, "ab"},
		{"zero width", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateToWidth(tt.text, tt.width); got != tt.want {
				t.Errorf("TruncateToWidth(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestPadPlain(t *testing.T) {
	if got := PadPlain("ab", 5); got != "ab   " {
		t.Errorf("PadPlain() = %q", got)
	}
	if got := PadPlain("abcdef", 5); got != "abcdef" {
		t.Errorf("PadPlain() must not trim, got %q", got)
	}
}

func TestWrapToWidth(t *testing.T) {
	lines := WrapToWidth("the quick brown fox jumps", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("Line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps" {
		t.Errorf("Wrap lost words: %v", lines)
	}
}

func TestWrapToWidth_LongWordBroken(t *testing.T) {
	lines := WrapToWidth("abcdefghijkl", 5)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 chunks, got %v", lines)
	}
	if lines[0] != "abcde" || lines[2] != "kl" {
		t.Errorf("Unexpected chunks %v", lines)
	}
}

func TestWrapToWidth_PreservesBlankLines(t *testing.T) {
	lines := WrapToWidth("a\n\nb", 10)
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("Expected blank line preserved, got %v", lines)
	}
}

func TestSplitByWidth_WideRunes(t *testing.T) {
	parts := SplitByWidth("日本語テスト", 4)
	for _, p := range parts {
		if w := runewidth.StringWidth(p); w > 4 {
			t.Errorf("Chunk %q is %d cells wide", p, w)
		}
	}
	if strings.Join(parts, "") != "日本語テスト" {
		t.Errorf("Split lost runes: %v", parts)
	}
}
