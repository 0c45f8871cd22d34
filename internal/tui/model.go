// Package tui is the terminal front end: a bubbletea program hosting one
// grid.View, fed either by a local dataset or by a remote import through a
// paging.Coordinator.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/paging"
	"github.com/JonMunkholm/gridview/internal/remote"
)

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeFilter
	modeColumns
	modeNotice
)

// RemoteSource is everything a remote import offers the UI.
// *remote.Client implements it.
type RemoteSource interface {
	paging.RowSource
	ColumnSource
	Exporter
}

var _ RemoteSource = (*remote.Client)(nil)

// Options configures a Model.
type Options struct {
	Grid      grid.Options
	PageSize  int
	ExportDir string
	Logger    *slog.Logger
}

// Model is the bubbletea model.
type Model struct {
	opts  Options
	title string

	view *grid.View
	res  grid.Result

	// Remote datasets only.
	coord  *paging.Coordinator
	remote RemoteSource

	mode   mode
	input  string
	status string
	notice string

	cursor    int // row under the cursor, in rendered rows
	offset    int // first visible row
	colCursor int // active column under the cursor
	colOffset int // first visible column
	pick      int // cursor in the column picker

	width  int
	height int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	o.Grid.Logger = o.Logger
	return o
}

// NewLocal returns a model over an in-memory dataset.
func NewLocal(title string, ds grid.Dataset, opts Options) *Model {
	opts = opts.withDefaults()
	m := &Model{
		opts:  opts,
		title: title,
		view:  grid.NewView(opts.Grid, nil),
	}
	m.view.Load(ds)
	m.refresh()
	return m
}

// NewRemote returns a model over a remote import. Nothing is fetched until
// the program calls Init.
func NewRemote(title string, src RemoteSource, opts Options) *Model {
	opts = opts.withDefaults()
	m := &Model{
		opts:   opts,
		title:  title,
		view:   grid.NewView(opts.Grid, nil),
		remote: src,
		coord: paging.New(paging.Options{
			PageSize:      opts.PageSize,
			RenderCeiling: opts.Grid.RenderCeiling,
			Logger:        opts.Logger,
		}),
	}
	m.view.Load(grid.Dataset{Kind: grid.KindFlat, Remote: true})
	m.refresh()
	return m
}

// Init satisfies tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	return tea.Batch(fetchColumns(m.remote), fetchPage(m.remote, m.coord.Load()))
}

// Update satisfies tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clamp()
		return m, nil

	case pageMsg:
		return m, m.applyPage(msg)

	case columnsMsg:
		if msg.err != nil {
			m.status = "columns: " + msg.err.Error()
			m.opts.Logger.Warn("column fetch failed", "error", msg.err)
			return m, nil
		}
		m.view.SetHeaders(msg.meta.Columns)
		return m, m.refresh()

	case exportMsg:
		if msg.err != nil {
			var exportErr *remote.ExportError
			if !errors.As(msg.err, &exportErr) {
				exportErr = &remote.ExportError{Op: msg.kind, Err: msg.err}
			}
			m.notice = exportErr.Error()
			m.mode = modeNotice
			return m, nil
		}
		m.status = fmt.Sprintf("exported %s (%d bytes) to %s", msg.kind, msg.bytes, msg.path)
		return m, nil

	case DoneMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// applyPage feeds a response to the coordinator and, when it was the latest
// one, swaps the records in the view.
func (m *Model) applyPage(msg pageMsg) tea.Cmd {
	wasAll := m.coord.AllRowsActive()
	if !m.coord.Complete(msg.req, msg.page, msg.err) {
		return nil
	}
	if err := m.coord.Err(); err != nil {
		m.status = err.Error() + " (r to retry)"
		return nil
	}
	pag := m.coord.Pagination()
	m.status = ""
	if wasAll && !m.coord.AllRowsActive() {
		m.status = fmt.Sprintf("%d rows is too many to show at once, back to %d per page", pag.TotalCount, pag.PageSize)
	}
	applied := api.RowPage{Rows: m.coord.Rows()}
	m.view.ReplaceRecords(grid.NormalizeFlat(applied.Values(), m.opts.Logger), pag.TotalCount)
	return m.refresh()
}

// refresh recomputes the frame. A defaulted selection on a remote dataset
// narrows the server projection to the same columns.
func (m *Model) refresh() tea.Cmd {
	m.res = m.view.Compute()
	m.clamp()
	if m.res.Defaulted != nil && m.coord != nil {
		return fetchPage(m.remote, m.coord.SetColumns(m.res.Defaulted.Columns))
	}
	return nil
}

func (m *Model) clamp() {
	rows := len(m.res.Rows.Rendered)
	m.cursor = max(min(m.cursor, rows-1), 0)
	visible := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, rows-visible), 0)

	cols := len(m.res.Columns)
	m.colCursor = max(min(m.colCursor, cols-1), 0)
	m.colOffset = max(min(m.colOffset, m.colCursor), 0)
	m.pick = max(min(m.pick, len(m.res.Discovered)-1), 0)
}

// bodyHeight is the number of table rows that fit on screen.
func (m *Model) bodyHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(m.height-7, 3)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	switch m.mode {
	case modeNotice:
		m.notice = ""
		m.mode = modeTable
		return nil
	case modeSearch, modeFilter:
		return m.handleInput(msg)
	case modeColumns:
		return m.handlePicker(msg)
	}
	return m.handleTable(msg)
}

func (m *Model) handleTable(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "j", "down":
		m.cursor++
	case "k", "up":
		m.cursor--
	case "h", "left":
		m.colCursor--
		if m.colCursor < m.colOffset {
			m.colOffset = m.colCursor
		}
	case "l", "right":
		m.colCursor++
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.res.Rows.Rendered) - 1
	case "s":
		if len(m.res.Columns) > 0 {
			m.view.ToggleSort(m.res.Columns[m.colCursor])
			return m.refresh()
		}
	case "/":
		m.mode = modeSearch
		m.input = m.currentQuery()
	case "f":
		m.mode = modeFilter
		m.input = m.view.Filter()
	case "c":
		m.mode = modeColumns
	case "n", "pgdown":
		return m.nextPage()
	case "p", "pgup":
		return m.prevPage()
	case "a":
		return m.toggleAllRows()
	case "r":
		if m.coord != nil {
			return fetchPage(m.remote, m.coord.SetPage(m.coord.Pagination().Page))
		}
	case "e":
		return m.export(ExportRows)
	case "x":
		return m.export(ExportCounts)
	}
	m.clamp()
	return nil
}

func (m *Model) currentQuery() string {
	if m.coord != nil {
		return m.coord.Query()
	}
	return m.view.Filter()
}

// handleInput edits the search or filter line. Enter applies, Esc cancels.
func (m *Model) handleInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeTable
		m.input = ""
		return nil
	case tea.KeyEnter:
		text := m.input
		searching := m.mode == modeSearch
		m.mode = modeTable
		m.input = ""
		if searching && m.coord != nil {
			return fetchPage(m.remote, m.coord.Search(text))
		}
		m.view.SetFilter(text)
		m.cursor, m.offset = 0, 0
		return m.refresh()
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return nil
}

// handlePicker toggles columns. Space flips one column, "g" flips its
// whole prefix group. Leaving the picker refetches a remote projection.
func (m *Model) handlePicker(msg tea.KeyMsg) tea.Cmd {
	discovered := m.res.Discovered
	sel := m.view.Selection()

	switch msg.String() {
	case "j", "down":
		m.pick++
	case "k", "up":
		m.pick--
	case " ":
		if len(discovered) > 0 {
			m.seedSelection()
			sel.Toggle(discovered[m.pick])
		}
	case "g":
		if len(discovered) > 0 {
			m.seedSelection()
			index := grid.PrefixIndex(discovered)
			prefix := grid.Prefix(discovered[m.pick])
			if allSelected(sel, index[prefix]) {
				sel.DeselectPrefix(index, prefix)
			} else {
				sel.SelectPrefix(index, prefix)
			}
		}
	case "esc", "enter", "c":
		m.mode = modeTable
		cmd := m.refresh()
		if m.coord != nil && cmd == nil {
			cmd = fetchPage(m.remote, m.coord.SetColumns(sel.Columns()))
		}
		return cmd
	}
	m.res = m.view.Compute()
	m.clamp()
	return nil
}

// seedSelection turns the implicit default into an explicit selection so
// that a single toggle does not collapse the view to one column.
func (m *Model) seedSelection() {
	if sel := m.view.Selection(); sel.Len() == 0 {
		sel.Set(m.res.Columns)
	}
}

func allSelected(sel *grid.Selection, columns []string) bool {
	for _, c := range columns {
		if !sel.Has(c) {
			return false
		}
	}
	return len(columns) > 0
}

func (m *Model) nextPage() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	req, ok := m.coord.Next()
	if !ok {
		m.status = "last page"
		return nil
	}
	return fetchPage(m.remote, req)
}

func (m *Model) prevPage() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	req, ok := m.coord.Prev()
	if !ok {
		m.status = "first page"
		return nil
	}
	return fetchPage(m.remote, req)
}

// toggleAllRows switches between the configured page size and "all".
func (m *Model) toggleAllRows() tea.Cmd {
	if m.coord == nil {
		return nil
	}
	size := paging.AllRows
	if m.coord.AllRowsActive() {
		size = m.opts.PageSize
	}
	req, err := m.coord.SetPageSize(size)
	if err != nil {
		m.status = fmt.Sprintf("cannot show all %d rows at once", m.coord.Pagination().TotalCount)
		return nil
	}
	return fetchPage(m.remote, req)
}

func (m *Model) export(kind string) tea.Cmd {
	if m.coord == nil {
		m.status = "exports need a remote import"
		return nil
	}
	name := fmt.Sprintf("%s_%s.csv", kind, time.Now().Format("20060102_150405"))
	path := filepath.Join(m.opts.ExportDir, name)
	m.status = "exporting " + kind + "..."
	return runExport(m.remote, kind, m.res.Columns, path)
}
