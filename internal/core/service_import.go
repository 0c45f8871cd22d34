package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// CreateImport combines files by header union and stores the result as one
// import. The import row is written first with status "processing"; a
// failure after that point leaves it in status "error" with the message.
func (s *Service) CreateImport(ctx context.Context, files []ImportFile) (*Import, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.cfg.Import.MaxFiles {
		return nil, ErrTooManyFiles
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Import.Timeout)
	defer cancel()

	combined, err := CombineCSV(files, s.cfg.Import.MaxFileSize)
	if err != nil {
		return nil, err
	}

	imp := &Import{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		TotalRows:    len(combined.Rows),
		TotalColumns: len(combined.Headers),
		Headers:      combined.Headers,
		FileNames:    combined.FileNames,
		Status:       api.StatusProcessing,
	}
	logger := logging.WithFields(ctx, "import_id", imp.ID.String(), "files", len(files))
	logger.Info("import started", "rows", imp.TotalRows, "columns", imp.TotalColumns)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO grid_imports (id, created_at, total_rows, total_columns, headers, file_names, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgUUID(imp.ID), imp.CreatedAt, imp.TotalRows, imp.TotalColumns,
		imp.Headers, imp.FileNames, imp.Status)
	if err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	if err := s.copyRows(ctx, imp.ID, combined.Rows); err != nil {
		s.markFailed(imp.ID, err)
		logger.Error("import failed", "error", err)
		return nil, err
	}

	imp.Status = api.StatusCompleted
	if _, err := s.pool.Exec(ctx,
		`UPDATE grid_imports SET status = $2 WHERE id = $1`,
		pgUUID(imp.ID), imp.Status); err != nil {
		return nil, fmt.Errorf("complete import: %w", err)
	}

	logger.Info("import completed", "rows", imp.TotalRows)
	return imp, nil
}

// copyRows writes rows with COPY in batches inside one transaction.
func (s *Service) copyRows(ctx context.Context, id uuid.UUID, rows []map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := max(s.cfg.Import.BatchSize, 1)
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		src := pgx.CopyFromSlice(end-start, func(i int) ([]any, error) {
			idx := start + i
			return []any{pgUUID(id), idx, rows[idx]}, nil
		})
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"grid_rows"},
			[]string{"import_id", "row_index", "row_data"}, src); err != nil {
			return fmt.Errorf("copy rows %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rows: %w", err)
	}
	return nil
}

// markFailed records err on the import. It uses a fresh context because the
// import's own context may be the reason for the failure.
func (s *Service) markFailed(id uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx,
		`UPDATE grid_imports SET status = $2, error_message = $3 WHERE id = $1`,
		pgUUID(id), api.StatusError, cause.Error())
	if err != nil {
		logging.FromContext(ctx).Warn("could not record import failure", "import_id", id.String(), "error", err)
	}
}
