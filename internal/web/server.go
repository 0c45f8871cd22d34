// Package web provides the HTTP row service: CSV imports, paged row
// queries, exports and an HTML table fragment.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	mw "github.com/JonMunkholm/gridview/internal/web/middleware"
)

// DataService is the storage the handlers need. *core.Service implements it.
type DataService interface {
	Ping(ctx context.Context) error
	ImportLimiterStatus() core.ImportLimiterStatus

	CreateImport(ctx context.Context, files []core.ImportFile) (*core.Import, error)
	GetImport(ctx context.Context, id uuid.UUID) (*core.Import, error)
	ListImports(ctx context.Context, limit int) ([]*core.Import, error)
	DeleteImport(ctx context.Context, id uuid.UUID) error

	Rows(ctx context.Context, id uuid.UUID, q core.RowsQuery) (*api.RowPage, error)
	Columns(ctx context.Context, id uuid.UUID) (*api.ColumnMeta, error)
	StreamRows(ctx context.Context, id uuid.UUID, fn func(row map[string]string) error) error
	FieldCounts(ctx context.Context, id uuid.UUID, columns []string) ([]core.FieldCounts, error)
}

var _ DataService = (*core.Service)(nil)

// Server is the HTTP server for the row service.
type Server struct {
	service DataService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service DataService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.With(middleware.Timeout(s.cfg.Server.RequestTimeout)).
		Get("/imports/{importID}/view", s.handleView)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		// Streams run as long as the client reads.
		r.Get("/imports/{importID}/export", s.handleExport)
		r.Post("/imports/{importID}/exports/counts", s.handleExportCounts)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

			r.Get("/imports", s.handleListImports)
			r.Post("/imports", s.handleCreateImport)
			r.Get("/imports/{importID}", s.handleGetImport)
			r.Delete("/imports/{importID}", s.handleDeleteImport)

			r.Get("/imports/{importID}/rows", s.handleRows)
			r.Get("/imports/{importID}/columns", s.handleColumns)
			r.Post("/imports/{importID}/search", s.handleSearch)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Imports core.ImportLimiterStatus `json:"imports"`
	Error   string                   `json:"error,omitempty"`
}

// handleHealth reports database reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Imports: s.service.ImportLimiterStatus()}
	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Message
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}

