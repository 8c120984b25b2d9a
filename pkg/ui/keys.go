package ui

import (
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
)

// DecodeKey turns raw terminal bytes into a v2 KeyPressMsg. It returns the
// decoded key and how many bytes were consumed; n == 0 means the buffer
// holds an incomplete sequence and the caller should read more.
func DecodeKey(buf []byte) (tea.KeyPressMsg, int) {
	if len(buf) == 0 {
		return tea.KeyPressMsg{}, 0
	}

	// Escape sequences
	if buf[0] == 0x1b {
		if len(buf) == 1 {
			// Bare escape. The caller reads in chunks, so a lone 0x1b in the
			// buffer is a real Esc press, not a truncated sequence.
			return key(tea.KeyEscape), 1
		}
		if buf[1] == '[' {
			return decodeCSI(buf)
		}
		// Alt+<key>: drop the modifier, deliver the key
		msg, n := DecodeKey(buf[1:])
		if n == 0 {
			return tea.KeyPressMsg{}, 0
		}
		k := tea.Key(msg)
		k.Mod |= tea.ModAlt
		return tea.KeyPressMsg(k), n + 1
	}

	switch buf[0] {
	case '\r', '\n':
		return key(tea.KeyEnter), 1
	case '\t':
		return key(tea.KeyTab), 1
	case 0x7f, 0x08:
		return key(tea.KeyBackspace), 1
	case ' ':
		return key(tea.KeySpace), 1
	}

	// Ctrl+letter (0x01..0x1a, minus the ones handled above)
	if buf[0] >= 0x01 && buf[0] <= 0x1a {
		return tea.KeyPressMsg(tea.Key{
			Code: rune('a' + buf[0] - 1),
			Mod:  tea.ModCtrl,
		}), 1
	}

	// Printable rune
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(buf) {
			return tea.KeyPressMsg{}, 0
		}
		// Invalid byte: swallow it
		return tea.KeyPressMsg{}, 1
	}
	return tea.KeyPressMsg(tea.Key{Code: r, Text: string(r)}), size
}

func decodeCSI(buf []byte) (tea.KeyPressMsg, int) {
	if len(buf) < 3 {
		return tea.KeyPressMsg{}, 0
	}

	switch buf[2] {
	case 'A':
		return key(tea.KeyUp), 3
	case 'B':
		return key(tea.KeyDown), 3
	case 'C':
		return key(tea.KeyRight), 3
	case 'D':
		return key(tea.KeyLeft), 3
	case 'H':
		return key(tea.KeyHome), 3
	case 'F':
		return key(tea.KeyEnd), 3
	case 'Z':
		return tea.KeyPressMsg(tea.Key{Code: tea.KeyTab, Mod: tea.ModShift}), 3
	}

	// Numbered sequences: ESC [ <n> ~
	if buf[2] >= '0' && buf[2] <= '9' {
		if len(buf) < 4 {
			return tea.KeyPressMsg{}, 0
		}
		if buf[3] == '~' {
			switch buf[2] {
			case '1':
				return key(tea.KeyHome), 4
			case '3':
				return key(tea.KeyDelete), 4
			case '4':
				return key(tea.KeyEnd), 4
			case '5':
				return key(tea.KeyPgUp), 4
			case '6':
				return key(tea.KeyPgDown), 4
			}
			return tea.KeyPressMsg{}, 4
		}
	}

	// Unrecognized CSI: consume through its final byte (0x40..0x7e)
	for i := 2; i < len(buf); i++ {
		if buf[i] >= 0x40 && buf[i] <= 0x7e {
			return tea.KeyPressMsg{}, i + 1
		}
	}
	return tea.KeyPressMsg{}, 0
}

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg(tea.Key{Code: code})
}
