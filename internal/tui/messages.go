package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/paging"
)

// FetchTimeout bounds one page or column request issued from the UI.
var FetchTimeout = 30 * time.Second

// ColumnSource lists the headers of a remote dataset.
type ColumnSource interface {
	FetchColumns(ctx context.Context) (*api.ColumnMeta, error)
}

// Exporter writes full-dataset exports.
type Exporter interface {
	ExportAll(ctx context.Context, columns []string, w io.Writer) (int64, error)
	ExportCounts(ctx context.Context, columns []string, w io.Writer) (int64, error)
}

// pageMsg carries the outcome of one coordinator request.
type pageMsg struct {
	req  paging.Request
	page *api.RowPage
	err  error
}

// columnsMsg carries the remote header list.
type columnsMsg struct {
	meta *api.ColumnMeta
	err  error
}

// exportMsg reports a finished export.
type exportMsg struct {
	kind  string
	path  string
	bytes int64
	err   error
}

// DoneMsg is a transient status line.
type DoneMsg string

// fetchPage runs req off the event loop.
func fetchPage(src paging.RowSource, req paging.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()
		page, err := paging.Run(ctx, src, req)
		return pageMsg{req: req, page: page, err: err}
	}
}

// fetchColumns loads the header list.
func fetchColumns(src ColumnSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()
		meta, err := src.FetchColumns(ctx)
		return columnsMsg{meta: meta, err: err}
	}
}

// Export kinds.
const (
	ExportRows   = "rows"
	ExportCounts = "counts"
)

// runExport writes one export to path. Exports have no timeout beyond the
// process lifetime.
func runExport(exp Exporter, kind string, columns []string, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportMsg{kind: kind, path: path, err: err}
		}

		var n int64
		switch kind {
		case ExportCounts:
			n, err = exp.ExportCounts(context.Background(), columns, f)
		default:
			n, err = exp.ExportAll(context.Background(), columns, f)
		}
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		return exportMsg{kind: kind, path: path, bytes: n, err: err}
	}
}
