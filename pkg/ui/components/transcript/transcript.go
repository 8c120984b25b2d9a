package transcript

import (
	"fmt"
	"os"
	"strings"

	"nexora/pkg/mvp"
	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

const (
	transcriptBorderSize = 1
	transcriptPaddingH   = 1
	transcriptFooter     = "Up/Down Scroll | y Copy Response | o Copy Preview URL"
)

// Transcript renders the generation conversation: prompts, streaming
// progress and completion summaries. It follows the tail while new output
// streams in and stops following once the user scrolls up.
type Transcript struct {
	title      string
	width      int
	height     int
	lines      []string
	scrollY    int
	follow     bool
	copyText   string
	sandboxURL string
}

// New creates a transcript panel.
func New() *Transcript {
	return &Transcript{title: "Conversation", follow: true}
}

// SetSize sets the panel dimensions.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// SetMessages re-renders the transcript from the session messages. fullText
// is the complete assistant response kept for clipboard copy.
func (t *Transcript) SetMessages(messages []mvp.Message, fullText, sandboxURL string) {
	t.copyText = fullText
	t.sandboxURL = sandboxURL

	width := t.contentWidth()
	var lines []string
	for i, msg := range messages {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, t.renderHeader(msg))
		for _, line := range utils.WrapToWidth(msg.Content, width) {
			lines = append(lines, styles.TextStyle.Render(line))
		}
		for _, file := range msg.Files {
			lines = append(lines, styles.SuccessStyle.Render(utils.TruncateToWidth("  + "+file, width)))
		}
	}
	t.lines = lines

	if t.follow {
		t.scrollY = t.maxScroll()
	}
	t.clampScroll()
}

func (t *Transcript) renderHeader(msg mvp.Message) string {
	width := t.contentWidth()
	switch {
	case msg.Role == mvp.RoleUser:
		return styles.TextBoldStyle.Render(utils.TruncateToWidth("You", width))
	case msg.Status == mvp.StatusError:
		return styles.ErrorStyle.Render(utils.TruncateToWidth("Nexora (failed)", width))
	case msg.Status == mvp.StatusStreaming:
		return styles.TitleStyle.Render(utils.TruncateToWidth("Nexora ...", width))
	default:
		return styles.TitleStyle.Render(utils.TruncateToWidth("Nexora", width))
	}
}

// ShouldHandleKey returns true when the transcript should intercept the key.
func (t *Transcript) ShouldHandleKey(msg tea.KeyPressMsg) bool {
	switch msg.String() {
	case "up", "down", "pgup", "pgdown", "y", "o":
		return true
	}
	return false
}

// Update handles keyboard input for the transcript.
func (t *Transcript) Update(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "up", "down", "pgup", "pgdown":
		t.handleScroll(msg.String())
		return nil
	case "y":
		return t.copyToClipboard(t.copyText)
	case "o":
		if t.sandboxURL != "" {
			return t.copyToClipboard(t.sandboxURL)
		}
	}
	return nil
}

func (t *Transcript) handleScroll(key string) {
	maxScroll := t.maxScroll()

	switch key {
	case "up":
		if t.scrollY > 0 {
			t.scrollY--
			t.follow = false
		}
	case "down":
		if t.scrollY < maxScroll {
			t.scrollY++
		}
		t.follow = t.scrollY >= maxScroll
	case "pgup":
		t.scrollY -= 10
		if t.scrollY < 0 {
			t.scrollY = 0
		}
		t.follow = false
	case "pgdown":
		t.scrollY += 10
		if t.scrollY > maxScroll {
			t.scrollY = maxScroll
		}
		t.follow = t.scrollY >= maxScroll
	}
}

// Following reports whether the view tracks the newest output.
func (t *Transcript) Following() bool {
	return t.follow
}

// View renders the transcript panel.
func (t *Transcript) View() string {
	contentWidth := t.contentWidth()
	bodyHeight := t.bodyHeight()

	lines := make([]string, 0, bodyHeight+2)
	lines = append(lines, utils.PadStyled(styles.TitleStyle.Render(utils.TruncateToWidth(t.title, contentWidth)), contentWidth))

	start := t.scrollY
	end := start + bodyHeight
	if end > len(t.lines) {
		end = len(t.lines)
	}
	for i := start; i < end; i++ {
		lines = append(lines, utils.PadStyled(t.lines[i], contentWidth))
	}
	for len(lines) < 1+bodyHeight {
		lines = append(lines, strings.Repeat(" ", contentWidth))
	}

	lines = append(lines, utils.PadStyled(styles.FooterStyle.Render(utils.TruncateToWidth(transcriptFooter, contentWidth)), contentWidth))

	boxWidth := t.width
	if boxWidth < 1 {
		boxWidth = 1
	}
	return transcriptBoxStyle.
		Width(boxWidth).
		Padding(0, transcriptPaddingH).
		Render(strings.Join(lines, "\n"))
}

func (t *Transcript) copyToClipboard(text string) tea.Cmd {
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		_, _ = fmt.Fprint(os.Stdout, osc52.New(text))
		return nil
	}
}

func (t *Transcript) contentWidth() int {
	width := t.width - 2*(transcriptBorderSize+transcriptPaddingH)
	if width < 1 {
		return 1
	}
	return width
}

func (t *Transcript) bodyHeight() int {
	height := t.height - 2*transcriptBorderSize - 2
	if height < 1 {
		return 1
	}
	return height
}

func (t *Transcript) clampScroll() {
	maxScroll := t.maxScroll()
	if t.scrollY > maxScroll {
		t.scrollY = maxScroll
	}
	if t.scrollY < 0 {
		t.scrollY = 0
	}
}

func (t *Transcript) maxScroll() int {
	max := len(t.lines) - t.bodyHeight()
	if max < 0 {
		return 0
	}
	return max
}

var transcriptBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.ColorBorder)
