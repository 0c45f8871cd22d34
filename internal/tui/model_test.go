package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/grid"
)

type fakeSource struct {
	headers   []string
	rows      []map[string]string
	failRows  bool
	exportErr error
	lastCols  []string
}

func (f *fakeSource) page(rows []map[string]string, page, size int, columns []string) *api.RowPage {
	f.lastCols = columns
	start := min((page-1)*size, len(rows))
	end := min(start+size, len(rows))
	out := &api.RowPage{
		TotalCount: len(rows),
		Page:       page,
		PageSize:   size,
		TotalPages: api.TotalPages(len(rows), size),
		Rows:       []json.RawMessage{},
	}
	for _, r := range rows[start:end] {
		b, _ := json.Marshal(r)
		out.Rows = append(out.Rows, b)
	}
	return out
}

func (f *fakeSource) FetchRows(_ context.Context, page, size int, columns []string) (*api.RowPage, error) {
	if f.failRows {
		return nil, errors.New("connection refused")
	}
	return f.page(f.rows, page, size, columns), nil
}

func (f *fakeSource) Search(_ context.Context, query string, columns []string, page, size int) (*api.RowPage, error) {
	var hits []map[string]string
	for _, r := range f.rows {
		for _, v := range r {
			if strings.Contains(strings.ToLower(v), strings.ToLower(query)) {
				hits = append(hits, r)
				break
			}
		}
	}
	return f.page(hits, page, size, columns), nil
}

func (f *fakeSource) FetchColumns(context.Context) (*api.ColumnMeta, error) {
	return &api.ColumnMeta{Columns: f.headers, Groups: grid.PrefixIndex(f.headers)}, nil
}

func (f *fakeSource) ExportAll(_ context.Context, _ []string, w io.Writer) (int64, error) {
	if f.exportErr != nil {
		return 0, f.exportErr
	}
	n, err := io.WriteString(w, "name\nAnn\n")
	return int64(n), err
}

func (f *fakeSource) ExportCounts(_ context.Context, _ []string, w io.Writer) (int64, error) {
	if f.exportErr != nil {
		return 0, f.exportErr
	}
	n, err := io.WriteString(w, "name,Value,Count\n")
	return int64(n), err
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		headers: []string{"name", "city"},
		rows: []map[string]string{
			{"name": "Bob", "city": "Oslo"},
			{"name": "ann", "city": "Bergen"},
			{"name": "Cy", "city": "Oslo"},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(key(string(r)))
	}
}

func names(m *Model) []string {
	var out []string
	for _, r := range m.res.Rows.Rendered {
		out = append(out, grid.Value(r.Record, "name"))
	}
	return out
}

func localModel() *Model {
	src := newFakeSource()
	rows := make([]any, len(src.rows))
	for i, r := range src.rows {
		rows[i] = r
	}
	return NewLocal("people.csv", grid.FlatDataset(src.headers, rows, nil), Options{})
}

// loadRemote runs the initial column and page fetches synchronously.
func loadRemote(t *testing.T, src *fakeSource, opts Options) *Model {
	t.Helper()
	m := NewRemote("import", src, opts)
	m.Update(fetchColumns(src)())
	m.Update(fetchPage(src, m.coord.Load())())
	if err := m.coord.Err(); err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	return m
}

func TestLocal_SortToggle(t *testing.T) {
	m := localModel()

	if got := strings.Join(names(m), ","); got != "Bob,ann,Cy" {
		t.Fatalf("initial order = %s", got)
	}

	m.Update(key("s"))
	if got := strings.Join(names(m), ","); got != "ann,Bob,Cy" {
		t.Errorf("ascending = %s, want ann,Bob,Cy", got)
	}

	m.Update(key("s"))
	if got := strings.Join(names(m), ","); got != "Cy,Bob,ann" {
		t.Errorf("descending = %s, want Cy,Bob,ann", got)
	}
	if !strings.Contains(m.View(), "name ▼") {
		t.Error("view missing descending indicator")
	}
}

func TestLocal_Filter(t *testing.T) {
	m := localModel()

	m.Update(key("/"))
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	typeText(m, "oslo")
	if !strings.Contains(m.View(), "search: oslo") {
		t.Error("input line not rendered")
	}
	m.Update(key("enter"))

	if got := strings.Join(names(m), ","); got != "Bob,Cy" {
		t.Errorf("filtered = %s, want Bob,Cy", got)
	}

	m.Update(key("/"))
	m.Update(key("esc"))
	if m.view.Filter() != "oslo" {
		t.Errorf("esc should keep the applied filter, got %q", m.view.Filter())
	}
}

func TestLocal_ColumnPicker(t *testing.T) {
	m := localModel()

	m.Update(key("c"))
	if !strings.Contains(m.View(), "[x] city") {
		t.Errorf("picker view = %q", m.View())
	}

	// Discovered order is name, city. Drop city.
	m.Update(key("j"))
	m.Update(key(" "))
	m.Update(key("enter"))

	if got := strings.Join(m.res.Columns, ","); got != "name" {
		t.Errorf("columns = %s, want name", got)
	}
	if m.mode != modeTable {
		t.Errorf("mode = %v, want table", m.mode)
	}
}

func TestLocal_ExportNeedsRemote(t *testing.T) {
	m := localModel()
	_, cmd := m.Update(key("e"))
	if cmd != nil {
		t.Error("local export should not issue a command")
	}
	if !strings.Contains(m.status, "remote") {
		t.Errorf("status = %q", m.status)
	}
}

func TestRemote_Load(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{PageSize: 2})

	if got := strings.Join(names(m), ","); got != "Bob,ann" {
		t.Errorf("page 1 = %s", got)
	}
	if !strings.Contains(m.View(), "Page 1 of 2 (3 rows, 2 per page)") {
		t.Errorf("status line missing:\n%s", m.View())
	}

	_, cmd := m.Update(key("n"))
	if cmd == nil {
		t.Fatal("next page should fetch")
	}
	m.Update(cmd())
	if got := strings.Join(names(m), ","); got != "Cy" {
		t.Errorf("page 2 = %s", got)
	}

	_, cmd = m.Update(key("n"))
	if cmd != nil {
		t.Error("next on the last page should not fetch")
	}
	if m.status != "last page" {
		t.Errorf("status = %q", m.status)
	}
}

func TestRemote_StaleResponseIgnored(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{PageSize: 10})

	stale := fetchPage(src, m.coord.SetPage(1))
	fresh := fetchPage(src, m.coord.Search("bergen"))

	m.Update(fresh())
	m.Update(stale())

	if got := strings.Join(names(m), ","); got != "ann" {
		t.Errorf("rows = %s, want the search result", got)
	}
}

func TestRemote_FetchErrorKeepsRows(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{PageSize: 10})

	src.failRows = true
	_, cmd := m.Update(key("r"))
	m.Update(cmd())

	if len(m.res.Rows.Rendered) != 3 {
		t.Errorf("rows = %d, want previous 3", len(m.res.Rows.Rendered))
	}
	if !strings.Contains(m.status, "retry") {
		t.Errorf("status = %q", m.status)
	}
}

func TestRemote_DefaultedSelectionNarrowsProjection(t *testing.T) {
	src := newFakeSource()
	src.headers = []string{"name", "city", "zip"}
	m := NewRemote("import", src, Options{Grid: grid.Options{ColumnCap: 2}})

	_, cmd := m.Update(fetchColumns(src)())
	if cmd == nil {
		t.Fatal("capped column list should refetch")
	}
	if got := strings.Join(m.coord.Columns(), ","); got != "name,city" {
		t.Errorf("projection = %s", got)
	}
	m.Update(cmd())
	if got := strings.Join(src.lastCols, ","); got != "name,city" {
		t.Errorf("request columns = %s", got)
	}
}

func TestRemote_AllRowsToggle(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{PageSize: 2, Grid: grid.Options{RenderCeiling: 2}})

	_, cmd := m.Update(key("a"))
	if cmd != nil {
		t.Error("all rows should be refused above the render ceiling")
	}
	if !strings.Contains(m.status, "cannot show all") {
		t.Errorf("status = %q", m.status)
	}

	m = loadRemote(t, src, Options{PageSize: 2})
	_, cmd = m.Update(key("a"))
	if cmd == nil {
		t.Fatal("all rows should fetch")
	}
	m.Update(cmd())
	if len(m.res.Rows.Rendered) != 3 || !m.coord.AllRowsActive() {
		t.Errorf("rows = %d, all = %v", len(m.res.Rows.Rendered), m.coord.AllRowsActive())
	}
}

func TestRemote_AllRowsRevertedWhenTotalGrows(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{PageSize: 1, Grid: grid.Options{RenderCeiling: 2}})

	m.Update(fetchPage(src, m.coord.Search("oslo"))())
	_, cmd := m.Update(key("a"))
	if cmd == nil {
		t.Fatal("all rows should be allowed for two matches")
	}
	m.Update(cmd())
	if !m.coord.AllRowsActive() {
		t.Fatal("all rows should be active")
	}

	m.Update(fetchPage(src, m.coord.Search(""))())
	if m.coord.AllRowsActive() {
		t.Error("all rows should be dropped for three rows")
	}
	if !strings.Contains(m.status, "too many to show at once") {
		t.Errorf("status = %q", m.status)
	}
	if got := names(m); strings.Join(got, ",") != "Bob" {
		t.Errorf("names = %v, want one page of [Bob]", got)
	}
}

func TestRemote_Export(t *testing.T) {
	src := newFakeSource()
	m := loadRemote(t, src, Options{ExportDir: t.TempDir()})

	_, cmd := m.Update(key("x"))
	msg := cmd().(exportMsg)
	if msg.err != nil {
		t.Fatalf("export error = %v", msg.err)
	}
	if filepath.Dir(msg.path) != m.opts.ExportDir || !strings.HasPrefix(filepath.Base(msg.path), "counts_") {
		t.Errorf("path = %s", msg.path)
	}
	m.Update(msg)
	if !strings.Contains(m.status, "exported counts") {
		t.Errorf("status = %q", m.status)
	}

	src.exportErr = errors.New("server gone")
	_, cmd = m.Update(key("e"))
	m.Update(cmd())
	if m.mode != modeNotice || !strings.Contains(m.View(), "export rows: server gone") {
		t.Errorf("mode = %v view = %q", m.mode, m.View())
	}
	m.Update(key("j"))
	if m.mode != modeTable {
		t.Error("any key should dismiss the notice")
	}
}
