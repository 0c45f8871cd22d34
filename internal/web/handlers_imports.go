package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// handleCreateImport combines the uploaded "files" parts into one import.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	maxBody := s.cfg.Import.MaxFileSize*int64(s.cfg.Import.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, err)
			return
		}
		s.respondError(w, r, fmt.Errorf("parse upload: %w", core.ErrNoFiles))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, core.ErrNoFiles)
		return
	}
	if len(headers) > s.cfg.Import.MaxFiles {
		s.respondError(w, r, core.ErrTooManyFiles)
		return
	}

	files := make([]core.ImportFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		opened = append(opened, f)
		files = append(files, core.ImportFile{Name: fh.Filename, Reader: f})
	}

	imp, err := s.service.CreateImport(r.Context(), files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import created",
		"import_id", imp.ID.String(),
		"rows", imp.TotalRows,
		"files", len(files),
	)
	writeJSONStatus(w, http.StatusCreated, imp.Info())
}

// handleListImports returns recent imports, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", api.DefaultPageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	imports, err := s.service.ListImports(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]api.ImportInfo, len(imports))
	for i, imp := range imports {
		out[i] = imp.Info()
	}
	writeJSON(w, out)
}

// handleGetImport returns one import's metadata.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, imp.Info())
}

// handleDeleteImport removes an import and its rows.
func (s *Server) handleDeleteImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteImport(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import deleted", "import_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}
