package web

import (
	"net/http"
	"strings"
)

// handleRows returns one page of rows projected to the requested columns.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
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

	page, err := s.service.Rows(r.Context(), id, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, page)
}

// handleSearch is handleRows with a substring search. An empty query
// returns the unfiltered page.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
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
	q.Search = strings.TrimSpace(r.URL.Query().Get("query"))

	page, err := s.service.Rows(r.Context(), id, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, page)
}

// handleColumns returns the headers and their prefix groups.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	meta, err := s.service.Columns(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, meta)
}
