package web

// Shared request parsing used across handlers.

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/gridview/internal/core"
)

// importID parses the {importID} URL parameter.
func importID(r *http.Request) (uuid.UUID, error) {
	return core.ParseImportID(chi.URLParam(r, "importID"))
}

// parseIntParam parses an integer query parameter. A missing value yields
// def; a value that is not an integer is an error.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return def, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", name, val, core.ErrInvalidPage)
	}
	return i, nil
}

// parseColumns reads the repeated columns parameter. Names are taken
// verbatim since CSV headers may hold commas or edge spaces. Empty values
// are dropped; nil means every column.
func parseColumns(r *http.Request) []string {
	var cols []string
	for _, c := range r.URL.Query()["columns"] {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// parseRowsQuery reads page, page_size and columns. Range checks happen in
// the service against the configured maximum.
func (s *Server) parseRowsQuery(r *http.Request) (core.RowsQuery, error) {
	page, err := parseIntParam(r, "page", 1)
	if err != nil {
		return core.RowsQuery{}, err
	}
	size, err := parseIntParam(r, "page_size", s.cfg.Rows.DefaultPageSize)
	if err != nil {
		return core.RowsQuery{}, err
	}
	if size == 0 {
		return core.RowsQuery{}, fmt.Errorf("page_size 0: %w", core.ErrInvalidPage)
	}
	return core.RowsQuery{Page: page, PageSize: size, Columns: parseColumns(r)}, nil
}
