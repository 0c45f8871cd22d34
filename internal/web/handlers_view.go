package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// handleView renders one page of an import through the grid pipeline as an
// HTML fragment. sort, dir and filter apply to the fetched page only.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q, err := s.parseRowsQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if r.URL.Query().Get("page_size") == "" {
		q.PageSize = min(s.cfg.Grid.PageSize, s.cfg.Rows.MaxPageSize)
	}

	imp, err := s.service.GetImport(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	page, err := s.service.Rows(r.Context(), id, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())
	v := grid.NewView(grid.Options{
		ColumnCap:     s.cfg.Grid.ColumnCap,
		RenderCeiling: s.cfg.Grid.RenderCeiling,
		GroupKey:      s.cfg.Grid.GroupKey,
		Locale:        s.cfg.Grid.Locale,
		Logger:        logger,
	}, grid.NewSelection(q.Columns...))

	ds := grid.FlatDataset(imp.Headers, page.Values(), logger)
	ds.Remote = true
	ds.TotalCount = page.TotalCount
	v.Load(ds)

	params := r.URL.Query()
	if col := params.Get("sort"); col != "" {
		v.SetSort(grid.SortState{Column: col, Dir: grid.ParseSortDir(params.Get("dir"))})
	}
	v.SetFilter(strings.TrimSpace(params.Get("filter")))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tableFragment(v.Compute(), page).Render(r.Context(), w); err != nil {
		logger.Error("render view", "import_id", id.String(), "error", err)
	}
}
