package ui

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
		n     int
	}{
		{"letter", []byte("a"), "a", 1},
		{"enter cr", []byte("\r"), "enter", 1},
		{"enter lf", []byte("\n"), "enter", 1},
		{"tab", []byte("\t"), "tab", 1},
		{"space", []byte(" "), "space", 1},
		{"backspace", []byte{0x7f}, "backspace", 1},
		{"ctrl+c", []byte{0x03}, "ctrl+c", 1},
		{"ctrl+f", []byte{0x06}, "ctrl+f", 1},
		{"esc", []byte{0x1b}, "esc", 1},
		{"up", []byte("\x1b[A"), "up", 3},
		{"down", []byte("\x1b[B"), "down", 3},
		{"right", []byte("\x1b[C"), "right", 3},
		{"left", []byte("\x1b[D"), "left", 3},
		{"pgup", []byte("\x1b[5~"), "pgup", 4},
		{"pgdown", []byte("\x1b[6~"), "pgdown", 4},
		{"delete", []byte("\x1b[3~"), "delete", 4},
		{"shift+tab", []byte("\x1b[Z"), "shift+tab", 3},
		{"utf8 rune", []byte("é"), "é", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, n := DecodeKey(tt.input)
			if n != tt.n {
				t.Fatalf("DecodeKey(%q) consumed %d bytes, want %d", tt.input, n, tt.n)
			}
			if got := msg.String(); got != tt.want {
				t.Errorf("DecodeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeKey_IncompleteSequence(t *testing.T) {
	if _, n := DecodeKey([]byte("\x1b[")); n != 0 {
		t.Errorf("Expected incomplete CSI to consume 0 bytes, got %d", n)
	}
	if _, n := DecodeKey([]byte("\x1b[5")); n != 0 {
		t.Errorf("Expected incomplete numbered CSI to consume 0 bytes, got %d", n)
	}
}

func TestDecodeKey_AltModifier(t *testing.T) {
	msg, n := DecodeKey([]byte{0x1b, 'x'})
	if n != 2 {
		t.Fatalf("Expected 2 bytes consumed, got %d", n)
	}
	k := tea.Key(msg)
	if k.Mod&tea.ModAlt == 0 || k.Code != 'x' {
		t.Errorf("Expected alt+x, got %+v", k)
	}
}

func TestDecodeKey_TextCarriedForPrintable(t *testing.T) {
	msg, _ := DecodeKey([]byte("q"))
	if tea.Key(msg).Text != "q" {
		t.Errorf("Expected text %q, got %q", "q", tea.Key(msg).Text)
	}
}
