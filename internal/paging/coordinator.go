// Package paging coordinates page requests against a remote row source.
//
// A Coordinator is a small state machine. Every triggering event (load,
// page change, page-size change, column change, search) issues exactly one
// request stamped with a monotonic token. Only the response carrying the
// latest token is applied; anything older that arrives late is dropped.
//
// The split between Begin-style methods (which return a Request) and
// Complete lets an event loop run the fetch elsewhere and feed the result
// back as a message. Do is the synchronous shortcut.
package paging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/gridview/internal/api"
)

// AllRows is the page size value meaning "everything on one page".
const AllRows = -1

// ErrPageSizeAllRejected is returned when "all" is requested for a dataset
// larger than the render ceiling.
var ErrPageSizeAllRejected = errors.New("page size all exceeds render ceiling")

// State is the coordinator lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Trigger names the event that caused a request.
type Trigger int

const (
	TriggerLoad Trigger = iota
	TriggerPage
	TriggerPageSize
	TriggerColumns
	TriggerSearch
)

func (t Trigger) String() string {
	switch t {
	case TriggerLoad:
		return "load"
	case TriggerPage:
		return "page"
	case TriggerPageSize:
		return "page_size"
	case TriggerColumns:
		return "columns"
	case TriggerSearch:
		return "search"
	default:
		return "unknown"
	}
}

// RowSource is the remote row-data collaborator.
type RowSource interface {
	FetchRows(ctx context.Context, page, pageSize int, columns []string) (*api.RowPage, error)
	Search(ctx context.Context, query string, columns []string, page, pageSize int) (*api.RowPage, error)
}

// Pagination mirrors the server's paging numbers.
type Pagination struct {
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

// RowsShown is the number of rows the current page holds.
func (p Pagination) RowsShown() int {
	if p.PageSize <= 0 || p.Page < 1 {
		return 0
	}
	n := p.TotalCount - p.PageSize*(p.Page-1)
	if n > p.PageSize {
		n = p.PageSize
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Request is one outbound fetch.
type Request struct {
	Token    uint64
	Trigger  Trigger
	Page     int
	PageSize int
	Columns  []string
	Query    string
}

// IsSearch reports whether the request goes to the search endpoint.
func (r Request) IsSearch() bool { return r.Query != "" }

// FetchError wraps a failed row, column or search request.
type FetchError struct {
	Trigger Trigger
	Token   uint64
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch rows (%s, request %d): %v", e.Trigger, e.Token, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Coordinator.
type Options struct {
	PageSize      int
	RenderCeiling int
	Logger        *slog.Logger
}

// Coordinator owns PaginationState and the raw row cache of one remote
// dataset. It is not safe for concurrent use.
type Coordinator struct {
	state   State
	pag     Pagination
	rows    []json.RawMessage
	lastErr error
	loaded  bool

	issued  uint64
	want    int
	size    int
	allRows bool
	columns []string
	query   string
	ceiling int
	logger  *slog.Logger
}

// New returns an idle Coordinator.
func New(opts Options) *Coordinator {
	if opts.PageSize <= 0 {
		opts.PageSize = api.DefaultPageSize
	}
	if opts.RenderCeiling <= 0 {
		opts.RenderCeiling = 500
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		pag:     Pagination{Page: 1, PageSize: opts.PageSize},
		want:    1,
		size:    opts.PageSize,
		ceiling: opts.RenderCeiling,
		logger:  opts.Logger,
	}
}

// State returns the lifecycle state.
func (c *Coordinator) State() State { return c.state }

// Pagination returns the last applied paging numbers.
func (c *Coordinator) Pagination() Pagination { return c.pag }

// Rows returns the cached rows of the last applied page.
func (c *Coordinator) Rows() []json.RawMessage { return c.rows }

// Err returns the error of the last applied response, if any.
func (c *Coordinator) Err() error { return c.lastErr }

// Query returns the active search query.
func (c *Coordinator) Query() string { return c.query }

// Columns returns the column selection sent with each request.
func (c *Coordinator) Columns() []string { return c.columns }

// AllowsAll reports whether the "all" page size may be offered. Until a
// response has been applied the total is unknown and "all" is refused.
func (c *Coordinator) AllowsAll() bool {
	return c.loaded && c.pag.TotalCount <= c.ceiling
}

// Load starts a new dataset load from page one.
func (c *Coordinator) Load() Request {
	c.want = 1
	return c.begin(TriggerLoad)
}

// SetPage requests page, clamped to the known page range. The applied
// Pagination only changes once the response arrives.
func (c *Coordinator) SetPage(page int) Request {
	c.want = c.clamp(page)
	return c.begin(TriggerPage)
}

// Next moves forward one page. ok is false on the last page.
func (c *Coordinator) Next() (req Request, ok bool) {
	if c.pag.TotalPages > 0 && c.want >= c.pag.TotalPages {
		return Request{}, false
	}
	return c.SetPage(c.want + 1), true
}

// Prev moves back one page. ok is false on the first page.
func (c *Coordinator) Prev() (req Request, ok bool) {
	if c.want <= 1 {
		return Request{}, false
	}
	return c.SetPage(c.want - 1), true
}

// SetPageSize changes the page size and returns to page one. AllRows is
// rejected when the known total exceeds the render ceiling.
func (c *Coordinator) SetPageSize(size int) (Request, error) {
	if size == AllRows {
		if !c.AllowsAll() {
			return Request{}, ErrPageSizeAllRejected
		}
		c.allRows = true
	} else {
		if size <= 0 {
			return Request{}, fmt.Errorf("invalid page size %d", size)
		}
		c.allRows = false
		c.size = min(size, api.MaxPageSize)
	}
	c.want = 1
	return c.begin(TriggerPageSize), nil
}

// SetColumns changes the column projection and refetches the current page.
func (c *Coordinator) SetColumns(columns []string) Request {
	c.columns = append([]string(nil), columns...)
	return c.begin(TriggerColumns)
}

// Search submits query from page one. An empty query goes back to plain
// paging.
func (c *Coordinator) Search(query string) Request {
	c.query = query
	c.want = 1
	return c.begin(TriggerSearch)
}

func (c *Coordinator) begin(t Trigger) Request {
	c.issued++
	c.state = Loading

	size := c.size
	if c.allRows {
		size = max(c.ceiling, 1)
	}
	req := Request{
		Token:    c.issued,
		Trigger:  t,
		Page:     c.want,
		PageSize: size,
		Columns:  c.columns,
		Query:    c.query,
	}
	c.logger.Debug("page request issued",
		"token", req.Token,
		"trigger", t.String(),
		"page", req.Page,
		"page_size", req.PageSize,
		"search", req.IsSearch(),
	)
	return req
}

// Complete applies the outcome of the request stamped with token. It
// returns false, changing nothing, when a newer request was issued since.
//
// On failure the previous rows and paging numbers are kept. A success whose
// total exceeds the render ceiling while "all" is in effect drops back to the
// configured page size and keeps only that page's worth of rows.
func (c *Coordinator) Complete(req Request, page *api.RowPage, err error) bool {
	if req.Token != c.issued {
		c.logger.Debug("stale page response discarded", "token", req.Token, "latest", c.issued)
		return false
	}
	if err == nil && page == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		c.state = Failed
		c.lastErr = &FetchError{Trigger: req.Trigger, Token: req.Token, Err: err}
		c.want = c.pag.Page
		c.logger.Warn("page request failed", "token", req.Token, "trigger", req.Trigger.String(), "error", err)
		return true
	}

	if c.allRows && page.TotalCount > c.ceiling {
		c.allRows = false
		c.logger.Warn("page size all no longer fits, reverting",
			"total", page.TotalCount,
			"ceiling", c.ceiling,
			"page_size", c.size,
		)
		page = c.resize(page)
	}

	c.state = Loaded
	c.loaded = true
	c.lastErr = nil
	c.rows = page.Rows
	c.want = max(page.Page, 1)
	c.pag = Pagination{
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
	return true
}

// Run performs req against src without touching coordinator state, so it
// can execute off the event loop.
func Run(ctx context.Context, src RowSource, req Request) (*api.RowPage, error) {
	if req.IsSearch() {
		return src.Search(ctx, req.Query, req.Columns, req.Page, req.PageSize)
	}
	return src.FetchRows(ctx, req.Page, req.PageSize, req.Columns)
}

// Do runs req synchronously and applies the result. The returned error is
// the *FetchError recorded for req, or nil when req succeeded or was stale.
func (c *Coordinator) Do(ctx context.Context, src RowSource, req Request) error {
	page, err := Run(ctx, src, req)
	if !c.Complete(req, page, err) {
		return nil
	}
	return c.lastErr
}

// AllRowsActive reports whether the "all" page size is in effect.
func (c *Coordinator) AllRowsActive() bool { return c.allRows }

// resize reshapes a first page fetched at the ceiling size into a first
// page of the configured size.
func (c *Coordinator) resize(page *api.RowPage) *api.RowPage {
	if page.Page > 1 {
		return page
	}
	out := *page
	out.Page = 1
	out.PageSize = c.size
	out.Rows = page.Rows[:min(len(page.Rows), c.size)]
	out.TotalPages = api.TotalPages(page.TotalCount, c.size)
	return &out
}

func (c *Coordinator) clamp(page int) int {
	if page < 1 {
		return 1
	}
	if c.pag.TotalPages > 0 && page > c.pag.TotalPages {
		return c.pag.TotalPages
	}
	return page
}
