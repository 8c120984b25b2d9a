package statusbar

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// StatusBar renders the single-line footer: who is signed in, remaining
// credits, backend health and generation progress.
type StatusBar struct {
	userName   string
	guest      bool
	credits    int
	health     string
	message    string
	generating bool
	width      int
}

// New creates a status bar.
func New() *StatusBar {
	return &StatusBar{health: "unknown", width: 80}
}

// SetUser updates the signed-in identity.
func (s *StatusBar) SetUser(name string, guest bool) {
	s.userName = strings.TrimSpace(name)
	s.guest = guest
}

// SetCredits updates the remaining credit count.
func (s *StatusBar) SetCredits(credits int) {
	s.credits = credits
}

// SetHealth records the latest backend probe result ("ok", "down", ...).
func (s *StatusBar) SetHealth(health string) {
	s.health = strings.TrimSpace(health)
}

// SetMessage sets a transient message shown instead of the identity segment.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// SetGenerating toggles the generation progress marker.
func (s *StatusBar) SetGenerating(active bool) {
	s.generating = active
}

// SetWidth updates the width for rendering.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// Render returns the styled status bar string.
func (s *StatusBar) Render() string {
	identity := s.userName
	if identity == "" {
		identity = "signed out"
	}
	if s.guest {
		identity += " (guest)"
	}

	var content string
	if s.message != "" {
		content = fmt.Sprintf("[nexora] %s", s.message)
	} else {
		content = fmt.Sprintf("[nexora] %s | credits: %d | backend: %s", identity, s.credits, s.health)
	}
	if s.generating {
		content += " | generating..."
	}

	// Truncate if too long (ANSI-aware width).
	maxWidth := s.width - 4
	if maxWidth < 10 {
		maxWidth = 10
	}
	if ansi.StringWidth(content) > maxWidth {
		content = ansi.Truncate(content, maxWidth, "...")
	}

	styled := statusStyle.Render(content)

	contentWidth := ansi.StringWidth(content)
	if contentWidth < s.width {
		styled += strings.Repeat(" ", s.width-contentWidth)
	}

	return styled
}

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)
