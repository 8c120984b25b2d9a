package toasts

import (
	"strings"

	"nexora/pkg/notify"
	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"

	"charm.land/lipgloss/v2"
)

const maxVisible = 4

// Toasts renders the active notifications as a stacked overlay, newest last.
type Toasts struct {
	center *notify.Center
	width  int
}

// New creates a toast overlay over the given notification center.
func New(center *notify.Center) *Toasts {
	return &Toasts{center: center, width: 40}
}

// SetWidth sets the maximum toast width.
func (t *Toasts) SetWidth(width int) {
	t.width = width
}

// DismissNewest dismisses the most recent notification, if any. Returns
// true when something was dismissed.
func (t *Toasts) DismissNewest() bool {
	active := t.center.Active()
	if len(active) == 0 {
		return false
	}
	t.center.Dismiss(active[len(active)-1].ID)
	return true
}

// View renders the visible toasts, most recent at the bottom. Only the last
// few are drawn so a burst of notifications cannot swallow the screen.
func (t *Toasts) View() string {
	active := t.center.Active()
	if len(active) == 0 {
		return ""
	}
	if len(active) > maxVisible {
		active = active[len(active)-maxVisible:]
	}

	innerWidth := t.width - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	boxes := make([]string, 0, len(active))
	for _, n := range active {
		text := utils.TruncateToWidth(n.Text, innerWidth)
		boxes = append(boxes, styleFor(n.Level).Render(text))
	}
	return strings.Join(boxes, "\n")
}

func styleFor(level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelSuccess:
		return styles.ToastSuccessStyle
	case notify.LevelWarning:
		return styles.ToastWarningStyle
	case notify.LevelError:
		return styles.ToastErrorStyle
	default:
		return styles.ToastInfoStyle
	}
}
