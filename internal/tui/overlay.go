package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// placement is where a card was drawn over the base canvas.
type placement struct {
	x, y          int
	width, height int
}

func (p placement) contains(x, y int) bool {
	return x >= p.x && x < p.x+p.width && y >= p.y && y < p.y+p.height
}

// placeCard centres card horizontally with its top edge at row top, moved
// up when it would run off the bottom.
func placeCard(card string, width, height, top int) placement {
	lines := splitToLines(card, 0)
	p := placement{width: maxLineWidth(lines), height: len(lines)}
	p.x = max((width-p.width)/2, 0)
	p.y = max(min(top, height-p.height), 0)
	return p
}

// overlayCard draws card at p, keeping the base lines it does not cover.
func overlayCard(base, card string, p placement, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := fitCanvas(base, width, height)
	if p.width <= 0 || p.height <= 0 {
		return canvas
	}
	return overlayAt(canvas, card, p.x, p.y, width, height)
}

func overlayAt(base, overlay string, x, y, width, height int) string {
	baseLines := splitToLines(base, height)
	overlayLines := splitToLines(overlay, 0)
	overlayWidth := maxLineWidth(overlayLines)
	for i, line := range overlayLines {
		row := y + i
		if row < 0 || row >= len(baseLines) || row >= height {
			continue
		}
		target := padRightANSI(baseLines[row], width)
		left := ansi.Truncate(target, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		overlayLine := padRightANSI(line, overlayWidth)
		pos := x + ansi.StringWidth(overlayLine)
		right := dropColumns(target, pos)
		if gap := width - pos - ansi.StringWidth(right); gap > 0 {
			right = strings.Repeat(" ", gap) + right
		}
		baseLines[row] = left + overlayLine + right
	}
	return strings.Join(baseLines, "\n")
}

func fitCanvas(s string, width, height int) string {
	lines := splitToLines(s, height)
	for i := range lines {
		lines[i] = padRightANSI(lines[i], width)
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
	maxWidth := 0
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return ansi.TruncateLeft(s, cols, "")
}

func padRightANSI(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
