package explorer

import (
	"strings"

	"nexora/pkg/filetree"
	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

const (
	explorerBorderSize = 1
	explorerPaddingH   = 1
	explorerFooter     = "Up/Down Move | Enter Open | Esc Close"
)

// FileSelectedMsg is returned when the user opens a file.
type FileSelectedMsg struct {
	Path    string
	Content string
}

// Explorer is the generated-project file tree panel. The tree is rebuilt
// wholesale whenever the file set changes; the cursor and selection are
// re-validated against the new tree instead of carried over blindly.
type Explorer struct {
	title    string
	visible  bool
	width    int
	height   int
	tree     []*filetree.Node
	rows     []filetree.VisibleNode
	cursor   int
	scrollY  int
	selected string
}

// New creates an explorer panel.
func New() *Explorer {
	return &Explorer{title: "Files"}
}

// Show displays the panel.
func (e *Explorer) Show() {
	e.visible = true
}

// Hide hides the panel.
func (e *Explorer) Hide() {
	e.visible = false
}

// IsVisible returns whether the panel is visible.
func (e *Explorer) IsVisible() bool {
	return e.visible
}

// SetSize sets the panel dimensions.
func (e *Explorer) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.clampScroll()
}

// SetFiles rebuilds the tree from a flat path -> content map. A previously
// selected file that vanished from the new set clears the selection.
func (e *Explorer) SetFiles(files map[string]string) {
	e.tree = filetree.Build(files)
	e.selected = filetree.Resolve(e.tree, e.selected)
	e.reflow()
}

// SelectedFile returns the path of the currently opened file, or "".
func (e *Explorer) SelectedFile() string {
	return e.selected
}

// FileCount returns the number of files in the tree.
func (e *Explorer) FileCount() int {
	return len(filetree.LeafPaths(e.tree))
}

// ShouldHandleKey returns true when the explorer should intercept the key.
func (e *Explorer) ShouldHandleKey(msg tea.KeyPressMsg) bool {
	if !e.visible {
		return false
	}
	switch msg.String() {
	case "esc", "q", "up", "down", "left", "right", "enter", "space", "pgup", "pgdown":
		return true
	}
	return false
}

// Update handles keyboard input for the explorer.
func (e *Explorer) Update(msg tea.KeyPressMsg) tea.Cmd {
	if !e.visible {
		return nil
	}

	switch msg.String() {
	case "esc", "q":
		e.Hide()
		return nil

	case "up":
		if e.cursor > 0 {
			e.cursor--
		}
		e.clampScroll()

	case "down":
		if e.cursor < len(e.rows)-1 {
			e.cursor++
		}
		e.clampScroll()

	case "pgup":
		e.cursor -= e.bodyHeight()
		if e.cursor < 0 {
			e.cursor = 0
		}
		e.clampScroll()

	case "pgdown":
		e.cursor += e.bodyHeight()
		if e.cursor > len(e.rows)-1 {
			e.cursor = len(e.rows) - 1
		}
		e.clampScroll()

	case "left":
		if node := e.current(); node != nil && node.Type == filetree.TypeFolder && node.Expanded {
			node.Expanded = false
			e.reflow()
		}

	case "right":
		if node := e.current(); node != nil && node.Type == filetree.TypeFolder && !node.Expanded {
			node.Expanded = true
			e.reflow()
		}

	case "enter", "space":
		node := e.current()
		if node == nil {
			return nil
		}
		if node.Type == filetree.TypeFolder {
			node.Expanded = !node.Expanded
			e.reflow()
			return nil
		}
		e.selected = node.Path
		path, content := node.Path, node.Content
		return func() tea.Msg {
			return FileSelectedMsg{Path: path, Content: content}
		}
	}

	return nil
}

// View renders the explorer panel.
func (e *Explorer) View() string {
	if !e.visible {
		return ""
	}

	contentWidth := e.contentWidth()
	bodyHeight := e.bodyHeight()

	lines := make([]string, 0, bodyHeight+2)
	lines = append(lines, utils.PadStyled(styles.TitleStyle.Render(utils.TruncateToWidth(e.title, contentWidth)), contentWidth))

	start := e.scrollY
	end := start + bodyHeight
	if end > len(e.rows) {
		end = len(e.rows)
	}
	for i := start; i < end; i++ {
		line := utils.TruncateToWidth(e.rowText(i), contentWidth)
		if i == e.cursor {
			lines = append(lines, utils.PadStyled(styles.SelectedStyle.Render(utils.PadPlain(line, contentWidth)), contentWidth))
			continue
		}
		lines = append(lines, utils.PadStyled(styles.TextStyle.Render(line), contentWidth))
	}
	for len(lines) < 1+bodyHeight {
		lines = append(lines, strings.Repeat(" ", contentWidth))
	}

	lines = append(lines, utils.PadStyled(styles.FooterStyle.Render(utils.TruncateToWidth(explorerFooter, contentWidth)), contentWidth))

	boxWidth := e.width
	if boxWidth < 1 {
		boxWidth = 1
	}
	return explorerBoxStyle.
		Width(boxWidth).
		Padding(0, explorerPaddingH).
		Render(strings.Join(lines, "\n"))
}

// RenderPlain returns the tree rows without styling. The cursor row carries a
// "> " marker, expanded folders "- ", collapsed folders "+ ", and the opened
// file a trailing " *".
func (e *Explorer) RenderPlain() string {
	var sb strings.Builder
	for i := range e.rows {
		sb.WriteString(e.rowMarker(i))
		sb.WriteString(e.rowText(i))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (e *Explorer) rowMarker(i int) string {
	if i == e.cursor {
		return "> "
	}
	return "  "
}

func (e *Explorer) rowText(i int) string {
	row := e.rows[i]
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", row.Depth))

	switch {
	case row.Node.Type == filetree.TypeFolder && row.Node.Expanded:
		sb.WriteString("- ")
	case row.Node.Type == filetree.TypeFolder:
		sb.WriteString("+ ")
	default:
		sb.WriteString("  ")
	}

	sb.WriteString(row.Node.Name)
	if row.Node.Type == filetree.TypeFile && row.Node.Path == e.selected {
		sb.WriteString(" *")
	}
	return sb.String()
}

func (e *Explorer) current() *filetree.Node {
	if e.cursor < 0 || e.cursor >= len(e.rows) {
		return nil
	}
	return e.rows[e.cursor].Node
}

func (e *Explorer) reflow() {
	e.rows = filetree.Flatten(e.tree)
	if e.cursor > len(e.rows)-1 {
		e.cursor = len(e.rows) - 1
	}
	if e.cursor < 0 {
		e.cursor = 0
	}
	e.clampScroll()
}

func (e *Explorer) clampScroll() {
	bodyHeight := e.bodyHeight()
	if e.cursor < e.scrollY {
		e.scrollY = e.cursor
	}
	if e.cursor >= e.scrollY+bodyHeight {
		e.scrollY = e.cursor - bodyHeight + 1
	}
	if e.scrollY < 0 {
		e.scrollY = 0
	}
}

func (e *Explorer) contentWidth() int {
	width := e.width - 2*(explorerBorderSize+explorerPaddingH)
	if width < 1 {
		return 1
	}
	return width
}

func (e *Explorer) bodyHeight() int {
	height := e.height - 2*explorerBorderSize - 2
	if height < 1 {
		return 1
	}
	return height
}

var explorerBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.ColorBorder)
