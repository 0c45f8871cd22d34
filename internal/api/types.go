// Package api defines the JSON shapes exchanged between the row service and
// its clients.
package api

import (
	"encoding/json"
	"time"
)

// Page size limits shared by server and clients.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// RowPage is one page of rows from an import.
//
// Rows stay raw so that the consumer decides what to do with entries that
// are not JSON objects.
type RowPage struct {
	Rows       []json.RawMessage `json:"rows"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ColumnMeta lists the headers of an import and their prefix groups.
type ColumnMeta struct {
	Columns []string            `json:"columns"`
	Groups  map[string][]string `json:"groups"`
}

// ImportInfo describes a stored import.
type ImportInfo struct {
	ID           string    `json:"import_id"`
	CreatedAt    time.Time `json:"created_at"`
	TotalRows    int       `json:"total_rows"`
	TotalColumns int       `json:"total_columns"`
	Headers      []string  `json:"headers"`
	FileNames    []string  `json:"file_names"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// Import statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// CountsRequest asks for per-column value counts.
type CountsRequest struct {
	Columns []string `json:"columns"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// TotalPages returns the page count for total rows at size rows per page.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Values decodes the page rows for grid.NormalizeFlat. Rows that are not
// valid JSON are passed through as their raw text so the normalizer can
// report them.
func (p *RowPage) Values() []any {
	out := make([]any, len(p.Rows))
	for i, raw := range p.Rows {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			out[i] = string(raw)
			continue
		}
		out[i] = v
	}
	return out
}
