package banner

import (
	"fmt"
	"strings"

	"nexora/pkg/ui/components/utils"
	"nexora/pkg/ui/styles"
	"nexora/pkg/version"

	"github.com/mattn/go-runewidth"
)

// Message returns the startup box printed before the first render.
func Message() string {
	const boxWidth = 53 // Total inner width

	makeLine := func(content string, visualWidth int) string {
		pad := boxWidth - visualWidth
		if pad < 0 {
			pad = 0
		}
		return styles.BannerBorderStyle.Render("│") + content + strings.Repeat(" ", pad) + styles.BannerBorderStyle.Render("│")
	}

	top := styles.BannerBorderStyle.Render("╭" + strings.Repeat("─", boxWidth) + "╮")
	bottom := styles.BannerBorderStyle.Render("╰" + strings.Repeat("─", boxWidth) + "╯")
	empty := makeLine("", 0)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, top)

	titleText := "✨ Nexora - build your MVP ✨"
	rawTitleWidth := runewidth.StringWidth(titleText)
	titleLeftPad := (boxWidth - rawTitleWidth) / 2
	titleLine := strings.Repeat(" ", titleLeftPad) + styles.BannerTitleStyle.Render(titleText)
	lines = append(lines, makeLine(titleLine, titleLeftPad+rawTitleWidth))

	lines = append(lines, empty)

	shortcutsHeader := "  Shortcuts:"
	lines = append(lines, makeLine(styles.BannerHeaderStyle.Render(shortcutsHeader), runewidth.StringWidth(shortcutsHeader)))

	shortcuts := []struct{ key, desc string }{
		{"Enter", "Generate from the typed prompt"},
		{"Ctrl+F", "Toggle the file explorer"},
		{"Ctrl+E", "Export project to GitHub"},
		{"Ctrl+X", "Cancel a running generation"},
		{"Ctrl+C", "Quit (press twice)"},
	}
	for _, s := range shortcuts {
		keyFormatted := fmt.Sprintf("    %-10s", s.key)
		line := styles.BannerKeyStyle.Render(keyFormatted) + styles.TextStyle.Render(s.desc)
		lineWidth := runewidth.StringWidth(keyFormatted) + runewidth.StringWidth(s.desc)
		lines = append(lines, makeLine(line, lineWidth))
	}

	lines = append(lines, empty)

	versionText := version.Summary()
	maxVersionLen := boxWidth - 4
	if runewidth.StringWidth(versionText) > maxVersionLen {
		versionText = utils.TruncateToWidth(versionText, maxVersionLen)
	}
	versionLeftPad := (boxWidth - runewidth.StringWidth(versionText)) / 2
	versionLine := strings.Repeat(" ", versionLeftPad) + styles.BannerVersionStyle.Render(versionText)
	lines = append(lines, makeLine(versionLine, versionLeftPad+runewidth.StringWidth(versionText)))

	lines = append(lines, bottom)
	lines = append(lines, "")

	return strings.Join(lines, "\n") + "\n"
}
