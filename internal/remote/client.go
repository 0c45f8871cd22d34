// Package remote is the HTTP client for the row service. It implements
// paging.RowSource and the one-shot export calls.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/gridview/internal/api"
)

// DefaultTimeout bounds each JSON request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 4 << 10

// StatusError is a non-2xx reply from the row service.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("row service: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("row service: %s (HTTP %d)", e.Message, e.StatusCode)
}

// ExportError is returned by the export calls. Exports are not retried.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Op, e.Err) }

func (e *ExportError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL    string
	ImportID   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one import on the row service.
type Client struct {
	base     *url.URL
	importID string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

// New returns a Client for opts.ImportID on opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		base:     base,
		importID: opts.ImportID,
		apiKey:   opts.APIKey,
		timeout:  opts.Timeout,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}, nil
}

// ImportID returns the import the client is bound to.
func (c *Client) ImportID() string { return c.importID }

// WithImport returns a copy of c bound to another import.
func (c *Client) WithImport(id string) *Client {
	cp := *c
	cp.importID = id
	return &cp
}

// FetchRows returns one page of rows projected to columns (all when empty).
func (c *Client) FetchRows(ctx context.Context, page, pageSize int, columns []string) (*api.RowPage, error) {
	q := pageQuery(page, pageSize, columns)
	var out api.RowPage
	if err := c.doJSON(ctx, http.MethodGet, c.importPath("rows"), q, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch rows page %d: %w", page, err)
	}
	return &out, nil
}

// FetchColumns returns the import's headers and their prefix groups.
func (c *Client) FetchColumns(ctx context.Context) (*api.ColumnMeta, error) {
	var out api.ColumnMeta
	if err := c.doJSON(ctx, http.MethodGet, c.importPath("columns"), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch columns: %w", err)
	}
	return &out, nil
}

// Search runs a server-side substring search. With columns set, a row
// matches when any of them contains query.
func (c *Client) Search(ctx context.Context, query string, columns []string, page, pageSize int) (*api.RowPage, error) {
	q := pageQuery(page, pageSize, columns)
	q.Set("query", query)
	var out api.RowPage
	if err := c.doJSON(ctx, http.MethodPost, c.importPath("search"), q, nil, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &out, nil
}

// Info returns the import's metadata.
func (c *Client) Info(ctx context.Context) (*api.ImportInfo, error) {
	var out api.ImportInfo
	if err := c.doJSON(ctx, http.MethodGet, c.importPath(""), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("import info: %w", err)
	}
	return &out, nil
}

// ListImports returns up to limit recent imports, newest first. It does
// not depend on the bound import.
func (c *Client) ListImports(ctx context.Context, limit int) ([]api.ImportInfo, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []api.ImportInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/imports", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return out, nil
}

// Delete removes the bound import and its rows.
func (c *Client) Delete(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.importPath(""), nil, nil, nil); err != nil {
		return fmt.Errorf("delete import: %w", err)
	}
	return nil
}

// ExportAll streams the full import as CSV into w, projected to columns.
// No timeout is applied beyond ctx since exports can be large.
func (c *Client) ExportAll(ctx context.Context, columns []string, w io.Writer) (int64, error) {
	q := url.Values{}
	addColumns(q, columns)
	n, err := c.stream(ctx, http.MethodGet, c.importPath("export"), q, nil, w)
	if err != nil {
		return n, &ExportError{Op: "rows", Err: err}
	}
	return n, nil
}

// ExportCounts streams per-column value counts as CSV into w.
func (c *Client) ExportCounts(ctx context.Context, columns []string, w io.Writer) (int64, error) {
	body, err := json.Marshal(api.CountsRequest{Columns: columns})
	if err != nil {
		return 0, &ExportError{Op: "counts", Err: err}
	}
	n, err := c.stream(ctx, http.MethodPost, c.importPath("exports/counts"), nil, body, w)
	if err != nil {
		return n, &ExportError{Op: "counts", Err: err}
	}
	return n, nil
}

// Upload posts CSV files as a new import and returns its metadata.
func (c *Client) Upload(ctx context.Context, files map[string]io.Reader) (*api.ImportInfo, error) {
	body, contentType, err := multipartBody(files)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/imports", nil, body)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	var out api.ImportInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("upload: decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) importPath(suffix string) string {
	p := "/api/imports/" + url.PathEscape(c.importID)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, path, q, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("row service request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) stream(ctx context.Context, method, path string, q url.Values, body []byte, w io.Writer) (int64, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, path, q, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	return io.Copy(w, resp.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	se := &StatusError{StatusCode: resp.StatusCode}
	var body api.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		se.Code = body.Code
		se.Message = body.Message
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode)
	}
	return se
}

func pageQuery(page, pageSize int, columns []string) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	addColumns(q, columns)
	return q
}

// addColumns sends one columns value per name so that names holding commas
// survive the trip.
func addColumns(q url.Values, columns []string) {
	for _, c := range columns {
		q.Add("columns", c)
	}
}
