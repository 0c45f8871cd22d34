package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/JonMunkholm/gridview/internal/grid"
)

const (
	minCellWidth = 4
	maxCellWidth = 30
	cellGap      = " │ "
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	groupStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	groupRowStyle = lipgloss.NewStyle().Bold(true)
	statusStyle   = lipgloss.NewStyle().Faint(true)
	noticeStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// View satisfies tea.Model.
func (m *Model) View() string {
	if m.mode == modeNotice {
		return noticeStyle.Render("Export failed\n\n" + m.notice + "\n\npress any key")
	}
	if m.mode == modeColumns {
		return m.pickerView()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	cols, widths := m.visibleColumns()
	if len(cols) == 0 {
		b.WriteString("no columns\n")
	} else {
		b.WriteString(groupStyle.Render(groupHeader(m.res.Groups, cols, widths)))
		b.WriteString("\n")
		b.WriteString(m.columnHeader(cols, widths))
		b.WriteString("\n")
		m.writeBody(&b, cols, widths)
	}

	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

// visibleColumns picks the active columns from colOffset that fit the
// terminal width, keeping the cursor column on screen.
func (m *Model) visibleColumns() ([]string, []int) {
	all := m.res.Columns
	if len(all) == 0 {
		return nil, nil
	}
	width := m.width
	if width <= 0 {
		width = 120
	}

	fit := func(from int) ([]string, []int) {
		var cols []string
		var widths []int
		used := 0
		for _, c := range all[from:] {
			w := m.columnWidth(c)
			if len(cols) > 0 && used+runewidth.StringWidth(cellGap)+w > width {
				break
			}
			if len(cols) > 0 {
				used += runewidth.StringWidth(cellGap)
			}
			used += w
			cols = append(cols, c)
			widths = append(widths, w)
		}
		return cols, widths
	}

	cols, widths := fit(m.colOffset)
	for m.colCursor >= m.colOffset+len(cols) && m.colOffset < len(all)-1 {
		m.colOffset++
		cols, widths = fit(m.colOffset)
	}
	return cols, widths
}

// columnWidth is the widest rendered value of column, clamped.
func (m *Model) columnWidth(column string) int {
	w := runewidth.StringWidth(column)
	if m.res.Sort.Column == column {
		w += 2
	}
	for _, rec := range m.res.Rows.Rendered {
		w = max(w, runewidth.StringWidth(grid.Value(rec.Record, column)))
		if w >= maxCellWidth {
			return maxCellWidth
		}
	}
	return max(w, minCellWidth)
}

// groupHeader labels each run of visible columns with its prefix.
func groupHeader(groups []grid.ColumnGroup, cols []string, widths []int) string {
	prefixOf := make(map[string]string, len(cols))
	for _, g := range groups {
		for _, c := range g.Columns {
			prefixOf[c] = g.Prefix
		}
	}

	var parts []string
	for i := 0; i < len(cols); {
		prefix := prefixOf[cols[i]]
		span := widths[i]
		j := i + 1
		for ; j < len(cols) && prefixOf[cols[j]] == prefix; j++ {
			span += runewidth.StringWidth(cellGap) + widths[j]
		}
		parts = append(parts, cell(prefix, span))
		i = j
	}
	return strings.Join(parts, cellGap)
}

func (m *Model) columnHeader(cols []string, widths []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		label := c
		if m.res.Sort.Column == c {
			if m.res.Sort.Dir == grid.Descending {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		text := cell(label, widths[i])
		if m.colOffset+i == m.colCursor {
			text = cursorStyle.Render(text)
		}
		parts[i] = headerStyle.Render(text)
	}
	return strings.Join(parts, cellGap)
}

func (m *Model) writeBody(b *strings.Builder, cols []string, widths []int) {
	rows := m.res.Rows.Rendered
	if len(rows) == 0 {
		b.WriteString("no rows\n")
		return
	}

	end := min(m.offset+m.bodyHeight(), len(rows))
	for i := m.offset; i < end; i++ {
		row := rows[i]
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = cell(grid.Value(row.Record, c), widths[j])
		}
		line := strings.Join(parts, cellGap)
		switch {
		case i == m.cursor:
			line = cursorStyle.Render(line)
		case row.IsGroupStart:
			line = groupRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.res.Rows.Truncated {
		fmt.Fprintf(b, "Showing first %d of %d rows\n", len(rows), m.res.Rows.LogicalCount)
	}
}

func (m *Model) statusLine() string {
	var parts []string
	if m.coord != nil {
		pag := m.coord.Pagination()
		size := fmt.Sprint(pag.PageSize)
		if m.coord.AllRowsActive() {
			size = "all"
		}
		parts = append(parts, fmt.Sprintf("Page %d of %d (%d rows, %s per page)",
			pag.Page, max(pag.TotalPages, 1), pag.TotalCount, size))
		if q := m.coord.Query(); q != "" {
			parts = append(parts, fmt.Sprintf("search %q", q))
		}
	} else {
		parts = append(parts, fmt.Sprintf("%d rows", m.res.Rows.LogicalCount))
	}
	if m.res.Filter != "" {
		parts = append(parts, fmt.Sprintf("filter %q", m.res.Filter))
	}
	parts = append(parts, fmt.Sprintf("%d/%d columns", len(m.res.Columns), len(m.res.Discovered)))
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) footer() string {
	switch m.mode {
	case modeSearch:
		return "search: " + m.input + "█"
	case modeFilter:
		return "filter: " + m.input + "█"
	}
	if m.coord != nil {
		return "q quit · s sort · / search · f filter · c columns · n/p page · a all · e export · x counts"
	}
	return "q quit · s sort · / filter · c columns"
}

func (m *Model) pickerView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Columns"))
	b.WriteString("\n")

	sel := m.view.Selection()
	active := make(map[string]bool, len(m.res.Columns))
	for _, c := range m.res.Columns {
		active[c] = true
	}

	visible := m.bodyHeight()
	start := max(m.pick-visible+1, 0)
	end := min(start+visible, len(m.res.Discovered))
	for i := start; i < end; i++ {
		c := m.res.Discovered[i]
		mark := "[ ]"
		if sel.Has(c) || (sel.Len() == 0 && active[c]) {
			mark = "[x]"
		}
		line := mark + " " + c
		if i == m.pick {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("space toggle · g toggle group · enter done"))
	return b.String()
}

// cell fits s into exactly width terminal cells.
func cell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
