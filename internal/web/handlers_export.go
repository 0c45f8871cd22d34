package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// exportFlushRows is how many CSV rows are buffered between flushes.
const exportFlushRows = 500

// handleExport streams every row of an import as CSV, projected to the
// requested columns in the order given.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	imp, err := s.service.GetImport(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	columns := parseColumns(r)
	if len(columns) == 0 {
		columns = imp.Headers
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=import_%s.csv", id))

	rc := http.NewResponseController(w)
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		s.respondError(w, r, err)
		return
	}

	record := make([]string, len(columns))
	n := 0
	err = s.service.StreamRows(r.Context(), id, func(row map[string]string) error {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
		n++
		if n%exportFlushRows == 0 {
			cw.Flush()
			_ = rc.Flush()
		}
		return cw.Error()
	})
	cw.Flush()

	logger := logging.FromContext(r.Context())
	if err != nil {
		// Headers are gone; the truncated body is all the client sees.
		logger.Error("export aborted", "import_id", id.String(), "rows", n, "error", err)
		return
	}
	logger.Info("export completed", "import_id", id.String(), "rows", n)
}

// handleExportCounts writes per-column value counts as CSV.
func (s *Server) handleExportCounts(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req api.CountsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("decode counts request: %w", errBadRequest))
		return
	}

	counts, err := s.service.FieldCounts(r.Context(), id, req.Columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=field_counts_%s.csv", id))
	if err := writeCounts(w, counts); err != nil {
		logging.FromContext(r.Context()).Error("counts export aborted", "import_id", id.String(), "error", err)
	}
}

// writeCounts renders counts as blocks: a [column, "Value", "Count"] row,
// one ["", value, count] row per value, then a blank line.
func writeCounts(w io.Writer, counts []core.FieldCounts) error {
	cw := csv.NewWriter(w)
	for _, fc := range counts {
		if err := cw.Write([]string{fc.Column, "Value", "Count"}); err != nil {
			return err
		}
		for _, vc := range fc.Values {
			if err := cw.Write([]string{"", vc.Value, strconv.FormatInt(vc.Count, 10)}); err != nil {
				return err
			}
		}
		if err := cw.Write(nil); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
