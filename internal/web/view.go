package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/grid"
)

// tableFragment renders one computed frame as an HTML table.
//
// The first header row spans each column group, the second names the
// columns with the active sort marked. Rows that start a group carry the
// group-start class.
func tableFragment(res grid.Result, page *api.RowPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw(`<div class="grid-view">`)
		hw.raw(`<table class="grid"><thead><tr class="column-groups">`)
		for _, g := range res.Groups {
			hw.raw(`<th colspan="` + strconv.Itoa(len(g.Columns)) + `">`)
			hw.text(g.Prefix)
			hw.raw(`</th>`)
		}
		hw.raw(`</tr><tr class="columns">`)
		for _, col := range res.Columns {
			hw.raw(`<th data-column="`)
			hw.text(col)
			hw.raw(`"`)
			if res.Sort.Column == col {
				hw.raw(` aria-sort="` + ariaSort(res.Sort.Dir) + `"`)
			}
			hw.raw(`>`)
			hw.text(col)
			hw.raw(`</th>`)
		}
		hw.raw(`</tr></thead><tbody>`)

		for _, row := range res.Rows.Rendered {
			if row.IsGroupStart {
				hw.raw(`<tr class="group-start" data-group="`)
				hw.text(row.GroupKey)
				hw.raw(`">`)
			} else {
				hw.raw(`<tr>`)
			}
			for _, col := range res.Columns {
				hw.raw(`<td>`)
				hw.text(grid.Value(row.Record, col))
				hw.raw(`</td>`)
			}
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table>`)

		hw.raw(`<p class="grid-status">`)
		hw.text(statusLine(res.Rows, page))
		hw.raw(`</p>`)
		if res.Rows.Truncated {
			hw.raw(`<p class="grid-truncated">`)
			hw.text(fmt.Sprintf("Showing first %d of %d rows", len(res.Rows.Rendered), res.Rows.LogicalCount))
			hw.raw(`</p>`)
		}
		hw.raw(`</div>`)
		return hw.err
	})
}

// statusLine describes the page position, e.g. "Page 2 of 5 (230 rows)".
func statusLine(g grid.Governed, page *api.RowPage) string {
	if page == nil || page.TotalPages == 0 {
		return fmt.Sprintf("%d rows", g.LogicalCount)
	}
	return fmt.Sprintf("Page %d of %d (%d rows)", page.Page, page.TotalPages, g.LogicalCount)
}

func ariaSort(d grid.SortDir) string {
	if d == grid.Descending {
		return "descending"
	}
	return "ascending"
}

// htmlWriter keeps the first write error so rendering code stays linear.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}
