package prompt

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
)

// SubmitMsg is returned when the user submits a prompt.
type SubmitMsg struct {
	Text string
}

// Prompt is the idea-entry box driving MVP generation.
type Prompt struct {
	textarea textarea.Model
	locked   bool
}

// New creates the prompt box.
func New() *Prompt {
	ta := textarea.New()
	ta.Placeholder = "Describe the MVP you want to build..."
	ta.SetHeight(3)
	ta.Focus()
	return &Prompt{textarea: ta}
}

// SetSize sets the input dimensions.
func (p *Prompt) SetSize(width, _ int) {
	p.textarea.SetWidth(width)
}

// SetLocked blocks submission while a generation is running. Typing stays
// possible so the user can draft the next prompt.
func (p *Prompt) SetLocked(locked bool) {
	p.locked = locked
}

// Locked reports whether submission is blocked.
func (p *Prompt) Locked() bool {
	return p.locked
}

// Value returns the current draft.
func (p *Prompt) Value() string {
	return p.textarea.Value()
}

// Update handles keyboard input for the prompt box.
func (p *Prompt) Update(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "enter" {
		if p.locked {
			return nil
		}
		text := strings.TrimSpace(p.textarea.Value())
		if text == "" {
			return nil
		}
		p.textarea.Reset()
		return func() tea.Msg {
			return SubmitMsg{Text: text}
		}
	}

	var cmd tea.Cmd
	p.textarea, cmd = p.textarea.Update(msg)
	return cmd
}

// InsertText routes pasted content into the draft.
func (p *Prompt) InsertText(text string) {
	p.textarea.InsertString(text)
}

// View renders the prompt box.
func (p *Prompt) View() string {
	return p.textarea.View()
}
