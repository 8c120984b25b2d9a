package login

import (
	"strings"

	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// SubmitMsg is returned when the user submits credentials.
type SubmitMsg struct {
	Email    string
	Password string
}

// GuestMsg is returned when the user requests an explicit guest session.
type GuestMsg struct{}

type field int

const (
	fieldEmail field = iota
	fieldPassword
)

// Panel is the sign-in form. A guest shortcut is only offered when the
// deployment explicitly enables it; there is no silent fallback to demo
// credentials.
type Panel struct {
	email      textinput.Model
	password   textinput.Model
	focused    field
	width      int
	errText    string
	allowGuest bool
	busy       bool
}

// New creates the sign-in form.
func New(allowGuest bool) *Panel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return &Panel{
		email:      email,
		password:   password,
		allowGuest: allowGuest,
	}
}

// SetSize sets the panel width.
func (p *Panel) SetSize(width, _ int) {
	p.width = width
}

// SetError shows an error line under the form (e.g. rejected credentials).
func (p *Panel) SetError(text string) {
	p.errText = text
	p.busy = false
}

// SetBusy toggles the submitting state; input is ignored while busy.
func (p *Panel) SetBusy(busy bool) {
	p.busy = busy
}

// Reset clears both fields and any error.
func (p *Panel) Reset() {
	p.email.Reset()
	p.password.Reset()
	p.errText = ""
	p.busy = false
	p.focusField(fieldEmail)
}

// Update handles keyboard input for the form.
func (p *Panel) Update(msg tea.KeyPressMsg) tea.Cmd {
	if p.busy {
		return nil
	}

	switch msg.String() {
	case "tab", "shift+tab", "down", "up":
		if p.focused == fieldEmail {
			p.focusField(fieldPassword)
		} else {
			p.focusField(fieldEmail)
		}
		return nil

	case "enter":
		if p.focused == fieldEmail {
			p.focusField(fieldPassword)
			return nil
		}
		email := strings.TrimSpace(p.email.Value())
		password := p.password.Value()
		if email == "" || password == "" {
			p.errText = "Email and password are required"
			return nil
		}
		p.errText = ""
		p.busy = true
		return func() tea.Msg {
			return SubmitMsg{Email: email, Password: password}
		}

	case "ctrl+g":
		if p.allowGuest {
			p.busy = true
			return func() tea.Msg {
				return GuestMsg{}
			}
		}
		return nil
	}

	var cmd tea.Cmd
	if p.focused == fieldEmail {
		p.email, cmd = p.email.Update(msg)
	} else {
		p.password, cmd = p.password.Update(msg)
	}
	return cmd
}

func (p *Panel) focusField(f field) {
	p.focused = f
	if f == fieldEmail {
		p.email.Focus()
		p.password.Blur()
	} else {
		p.password.Focus()
		p.email.Blur()
	}
}

// View renders the sign-in form.
func (p *Panel) View() string {
	contentWidth := p.width - 6
	if contentWidth < 20 {
		contentWidth = 20
	}

	var lines []string
	lines = append(lines, styles.TitleStyle.Render("Sign in to Nexora"))
	lines = append(lines, "")
	lines = append(lines, styles.LabelStyle.Render("Email")+p.email.View())
	lines = append(lines, styles.LabelStyle.Render("Password")+p.password.View())
	lines = append(lines, "")

	if p.errText != "" {
		lines = append(lines, styles.ErrorStyle.Render(utils.TruncateToWidth(p.errText, contentWidth)))
	}
	if p.busy {
		lines = append(lines, styles.TextMutedStyle.Render("Signing in..."))
	}

	footer := "Enter Submit | Tab Switch Field"
	if p.allowGuest {
		footer += " | Ctrl+G Guest Session"
	}
	lines = append(lines, styles.FooterStyle.Render(utils.TruncateToWidth(footer, contentWidth)))

	return loginBoxStyle.Render(strings.Join(lines, "\n"))
}

var loginBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.ColorBorder).
	Padding(1, 2)
