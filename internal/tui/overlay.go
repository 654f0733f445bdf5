package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(1, 2)

// renderPopup centers popup in a card over base, keeping the base visible
// around it.
func renderPopup(base, popup string, width, height int) string {
	if width <= 0 || height <= 0 {
		return base + "\n\n" + cardStyle.Render(popup)
	}
	canvas := fitCanvas(base, width, height)
	card := cardStyle.Render(popup)
	lines := splitToLines(card, 0)
	cardWidth := maxLineWidth(lines)
	if cardWidth <= 0 || len(lines) == 0 {
		return canvas
	}
	x := max(0, (width-cardWidth)/2)
	y := max(0, (height-len(lines))/2)
	return overlayAt(canvas, card, x, y, width, height)
}

func overlayAt(base, overlay string, x, y, width, height int) string {
	baseLines := splitToLines(base, height)
	overlayLines := splitToLines(overlay, 0)
	overlayWidth := maxLineWidth(overlayLines)
	for i, line := range overlayLines {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		target := padRight(baseLines[row], width)
		left := ansi.Truncate(target, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		mid := padRight(line, overlayWidth)
		pos := x + ansi.StringWidth(mid)
		right := dropColumns(target, pos)
		if gap := width - pos - ansi.StringWidth(right); gap > 0 {
			right = strings.Repeat(" ", gap) + right
		}
		baseLines[row] = left + mid + right
	}
	return strings.Join(baseLines, "\n")
}

func fitCanvas(s string, width, height int) string {
	lines := splitToLines(s, height)
	for i := range lines {
		lines[i] = padRight(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

func splitToLines(s string, height int) []string {
	lines := strings.Split(s, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for height > 0 && len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func maxLineWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		widest = max(widest, ansi.StringWidth(line))
	}
	return widest
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return strings.TrimPrefix(s, ansi.Truncate(s, cols, ""))
}

func padRight(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
