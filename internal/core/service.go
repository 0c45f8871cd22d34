package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/config"
)

// Service provides import storage and row queries over PostgreSQL.
type Service struct {
	pool    *pgxpool.Pool
	cfg     *config.Config
	limiter *ImportLimiter
}

// NewService creates a new Service instance.
func NewService(pool *pgxpool.Pool, cfg *config.Config) (*Service, error) {
	if pool == nil {
		return nil, errors.New("core: nil pool")
	}
	if cfg == nil {
		return nil, errors.New("core: nil config")
	}
	return &Service{
		pool:    pool,
		cfg:     cfg,
		limiter: NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
	}, nil
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ImportLimiterStatus returns the current import slot usage.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

const importColumns = `id, created_at, total_rows, total_columns, headers, file_names, status, COALESCE(error_message, '')`

// GetImport returns the import with id.
func (s *Service) GetImport(ctx context.Context, id uuid.UUID) (*Import, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+importColumns+` FROM grid_imports WHERE id = $1`,
		pgUUID(id))
	imp, err := scanImport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrImportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import %s: %w", id, err)
	}
	return imp, nil
}

// ListImports returns the most recent imports, newest first.
func (s *Service) ListImports(ctx context.Context, limit int) ([]*Import, error) {
	if limit <= 0 || limit > api.MaxPageSize {
		limit = api.DefaultPageSize
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+importColumns+` FROM grid_imports ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []*Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

// DeleteImport removes an import and its rows.
func (s *Service) DeleteImport(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM grid_imports WHERE id = $1`, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete import %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImportNotFound
	}
	return nil
}

func scanImport(row pgx.Row) (*Import, error) {
	var (
		imp     Import
		id      pgtype.UUID
		created time.Time
	)
	err := row.Scan(&id, &created, &imp.TotalRows, &imp.TotalColumns,
		&imp.Headers, &imp.FileNames, &imp.Status, &imp.ErrorMessage)
	if err != nil {
		return nil, err
	}
	imp.ID = uuid.UUID(id.Bytes)
	imp.CreatedAt = created.UTC()
	return &imp, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
