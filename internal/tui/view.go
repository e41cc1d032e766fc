package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/palette/core"
	"github.com/jask/palette/internal/fuzzy"
	"github.com/jask/palette/internal/ranking"
)

const (
	maxCardContentWidth = 68
	minCardContentWidth = 20
	cardTop             = 2
)

// viewLine is one rendered palette line; row is the index into the palette
// rows it shows, or -1.
type viewLine struct {
	text string
	row  int
}

// paletteLayout is the open palette as drawn: content lines in card order
// and where the card sits on screen.
type paletteLayout struct {
	lines []viewLine
	card  string
	place placement
}

// rowAt maps a screen cell to a palette row.
func (l paletteLayout) rowAt(x, y int) (int, bool) {
	if !l.place.contains(x, y) {
		return 0, false
	}
	// one border row above the content
	i := y - l.place.y - 1
	if i < 0 || i >= len(l.lines) || l.lines[i].row < 0 {
		return 0, false
	}
	return l.lines[i].row, true
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	if a.width <= 0 || a.height <= 0 {
		return "loading..."
	}
	base := a.renderBase()
	if !a.palette.IsOpen() {
		return base
	}
	l := a.layout()
	return overlayCard(base, l.card, l.place, a.width, a.height)
}

func (a *App) renderBase() string {
	header := headerStyle.Width(a.width).Render(ansi.Truncate(" "+a.title, a.width, "…"))
	status := statusStyle
	if a.statusErr {
		status = statusErrStyle
	}
	statusLine := status.Width(a.width).Render(ansi.Truncate(" "+a.status, a.width, "…"))
	footer := footerStyle.Width(a.width).Render(ansi.Truncate(" "+core.HelpLine(a.keys, core.ScopeApp), a.width, "…"))

	bodyHeight := max(a.height-3, 0)
	body := make([]string, 0, bodyHeight)
	if bodyHeight > 0 {
		body = append(body, bodyStyle.Render(ansi.Truncate(" Press "+keyStyle.Render(a.openKey())+" to search commands.", a.width, "")))
	}
	if a.lastRun != "" && bodyHeight > 1 {
		body = append(body, descStyle.Render(ansi.Truncate(" Last command: "+a.lastRun, a.width, "…")))
	}
	for len(body) < bodyHeight {
		body = append(body, "")
	}
	return strings.Join(append(append([]string{header}, body...), statusLine, footer), "\n")
}

func (a *App) layout() paletteLayout {
	width := clampInt(a.width-8, minCardContentWidth, maxCardContentWidth)
	lines := []viewLine{
		{text: ansi.Truncate(a.input.View(), width, ""), row: -1},
		{text: "", row: -1},
	}
	rows, above, below := renderRowsWindow(a.palette.Groups(), a.palette.Cursor(), a.offset, a.pageSize, width)
	switch {
	case len(rows) > 0:
		if above {
			lines = append(lines, viewLine{text: hintStyle.Render("  ↑ more"), row: -1})
		}
		lines = append(lines, rows...)
		if below {
			lines = append(lines, viewLine{text: hintStyle.Render("  ↓ more"), row: -1})
		}
	case strings.TrimSpace(a.palette.Query()) == "":
		lines = append(lines, viewLine{text: hintStyle.Render("No commands available"), row: -1})
	default:
		lines = append(lines, viewLine{text: hintStyle.Render("No matching commands"), row: -1})
		if s, ok := a.palette.Suggestion(); ok {
			hint := "Did you mean " + keyStyle.Render(s.Label) + hintStyle.Render("?")
			lines = append(lines, viewLine{text: hintStyle.Render(ansi.Truncate(hint, width, "…")), row: -1})
		}
	}
	lines = append(lines,
		viewLine{text: "", row: -1},
		viewLine{text: descStyle.Render(ansi.Truncate(core.HelpLine(a.keys, core.ScopePalette), width, "…")), row: -1},
	)

	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	card := cardStyle.Width(width + 2).Render(strings.Join(texts, "\n"))
	return paletteLayout{lines: lines, card: card, place: placeCard(card, a.width, a.height, cardTop)}
}

// renderRowsWindow renders the rows in [offset, offset+pageSize) with a
// header for each group that starts, or continues, inside the window.
func renderRowsWindow(groups []ranking.Group, cursor, offset, pageSize, width int) ([]viewLine, bool, bool) {
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}
	total := 0
	for _, g := range groups {
		total += len(g.Matches)
	}
	if total == 0 {
		return nil, false, false
	}
	end := min(offset+pageSize, total)
	out := make([]viewLine, 0, pageSize+len(groups))
	idx := 0
	for _, g := range groups {
		for j, m := range g.Matches {
			if idx >= offset && idx < end {
				if j == 0 || idx == offset {
					out = append(out, viewLine{text: groupStyle.Render(ansi.Truncate(g.Name, width, "…")), row: -1})
				}
				out = append(out, viewLine{text: renderRow(m, idx == cursor, width), row: idx})
			}
			idx++
		}
	}
	return out, offset > 0, end < total
}

func renderRow(m ranking.Match, selected bool, width int) string {
	base := rowStyle
	prefix := "  "
	if selected {
		base = selectedStyle
		prefix = "> "
	}
	var b strings.Builder
	b.WriteString(base.Render(prefix))
	if m.Command.Icon != "" {
		b.WriteString(base.Render(m.Command.Icon + " "))
	}
	b.WriteString(highlight(m.Command.Label, rangesFor(m, ranking.FieldLabel), base))
	if d := m.Command.Description; d != "" {
		b.WriteString(descStyle.Render(" · "))
		b.WriteString(highlight(d, rangesFor(m, ranking.FieldDescription), descStyle))
	}
	if m.Field == ranking.FieldSection {
		b.WriteString(descStyle.Render(" in "))
		b.WriteString(highlight(m.Command.Section, m.Highlights, descStyle))
	}
	if s := m.Command.Shortcut; s != "" {
		b.WriteString(shortcutStyle.Render("  " + s))
	}
	return ansi.Truncate(b.String(), width, "…")
}

func rangesFor(m ranking.Match, field ranking.Field) []fuzzy.Range {
	if m.Field != field {
		return nil
	}
	return m.Highlights
}

// highlight styles the rune ranges of text with matchStyle.
func highlight(text string, ranges []fuzzy.Range, base lipgloss.Style) string {
	if len(ranges) == 0 {
		return base.Render(text)
	}
	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, r := range ranges {
		start, end := clampInt(r.Start, pos, len(runes)), clampInt(r.End, pos, len(runes))
		if start > pos {
			b.WriteString(base.Render(string(runes[pos:start])))
		}
		if end > start {
			b.WriteString(matchStyle.Render(string(runes[start:end])))
		}
		pos = end
	}
	if pos < len(runes) {
		b.WriteString(base.Render(string(runes[pos:])))
	}
	return b.String()
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
