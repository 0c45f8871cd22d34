package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/logging"
)

// countWorkers bounds concurrent GROUP BY queries in FieldCounts.
const countWorkers = 4

// Rows returns one page of an import's rows in upload order.
//
// Each row is projected to q.Columns (all headers when empty). A non-empty
// q.Search matches against the projected columns, or every header when no
// columns are named. A page past the end yields no rows.
func (s *Service) Rows(ctx context.Context, id uuid.UUID, q RowsQuery) (*api.RowPage, error) {
	if q.PageSize == 0 {
		q.PageSize = s.cfg.Rows.DefaultPageSize
	}
	if q.Page < 1 || q.PageSize < 1 || q.PageSize > s.cfg.Rows.MaxPageSize {
		return nil, ErrInvalidPage
	}

	imp, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Rows.QueryTimeout)
	defer cancel()

	searchCols := q.Columns
	if len(searchCols) == 0 {
		searchCols = imp.Headers
	}

	wb := NewWhereBuilder()
	wb.AddImport(pgUUID(id))
	wb.AddSearch(q.Search, searchCols)
	where, args := wb.Build()

	var (
		total int64
		rows  []json.RawMessage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.pool.QueryRow(gctx, `SELECT COUNT(*) FROM grid_rows`+where, args...).Scan(&total)
		if err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rows, err = s.pageRows(gctx, where, args, excludedColumns(imp.Headers, q.Columns), q.Page, q.PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if rows == nil {
		rows = []json.RawMessage{}
	}
	return &api.RowPage{
		Rows:       rows,
		TotalCount: int(total),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: api.TotalPages(int(total), q.PageSize),
	}, nil
}

func (s *Service) pageRows(ctx context.Context, where string, args []any, excluded []string, page, size int) ([]json.RawMessage, error) {
	n := len(args)
	query := fmt.Sprintf(`SELECT row_index, jsonb_typeof(row_data),
		CASE WHEN jsonb_typeof(row_data) = 'object' THEN row_data - $%d::text[] ELSE row_data END
		FROM grid_rows%s ORDER BY row_index LIMIT $%d OFFSET $%d`, n+1, where, n+2, n+3)
	args = append(args[:n:n], excluded, size, (page-1)*size)

	result, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer result.Close()

	logger := logging.FromContext(ctx)
	var out []json.RawMessage
	for result.Next() {
		var (
			index int
			kind  string
			data  []byte
		)
		if err := result.Scan(&index, &kind, &data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if kind != "object" {
			logger.Warn("stored row is not an object", "row_index", index, "type", kind)
		}
		out = append(out, json.RawMessage(data))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Columns returns the import's headers and their prefix groups.
func (s *Service) Columns(ctx context.Context, id uuid.UUID) (*api.ColumnMeta, error) {
	imp, err := s.GetImport(ctx, id)
	if err != nil {
		return nil, err
	}
	return &api.ColumnMeta{
		Columns: imp.Headers,
		Groups:  grid.PrefixIndex(imp.Headers),
	}, nil
}

// StreamRows calls fn for every row of the import in upload order.
// Rows that are not objects are skipped.
func (s *Service) StreamRows(ctx context.Context, id uuid.UUID, fn func(row map[string]string) error) error {
	result, err := s.pool.Query(ctx,
		`SELECT row_index, row_data FROM grid_rows WHERE import_id = $1 ORDER BY row_index`,
		pgUUID(id))
	if err != nil {
		return fmt.Errorf("stream rows: %w", err)
	}
	defer result.Close()

	logger := logging.FromContext(ctx)
	for result.Next() {
		var (
			index int
			data  []byte
		)
		if err := result.Scan(&index, &data); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row, err := decodeRow(data)
		if err != nil {
			logger.Warn("skipping malformed row", "row_index", index, "error", err)
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return result.Err()
}

// decodeRow turns a stored object into strings. Non-string values keep
// their JSON text.
func decodeRow(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			row[k] = str
			continue
		}
		if string(v) == "null" {
			row[k] = ""
			continue
		}
		row[k] = string(v)
	}
	return row, nil
}

// FieldCounts returns the value distribution of each column, in the order
// the columns were given. Blank and missing values count as EmptyValueLabel.
func (s *Service) FieldCounts(ctx context.Context, id uuid.UUID, columns []string) ([]FieldCounts, error) {
	if len(columns) == 0 {
		return nil, ErrColumnsRequired
	}
	if _, err := s.GetImport(ctx, id); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Rows.QueryTimeout)
	defer cancel()

	out := make([]FieldCounts, len(columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countWorkers)
	for i, col := range columns {
		g.Go(func() error {
			values, err := s.columnCounts(gctx, id, col)
			if err != nil {
				return fmt.Errorf("count values of %q: %w", col, err)
			}
			out[i] = FieldCounts{Column: col, Values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) columnCounts(ctx context.Context, id uuid.UUID, column string) ([]ValueCount, error) {
	result, err := s.pool.Query(ctx,
		`SELECT COALESCE(NULLIF(row_data->>$2, ''), $3) AS v, COUNT(*)
		 FROM grid_rows WHERE import_id = $1 GROUP BY v`,
		pgUUID(id), column, EmptyValueLabel)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var values []ValueCount
	for result.Next() {
		var vc ValueCount
		if err := result.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, err
		}
		values = append(values, vc)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	sortCounts(values)
	return values, nil
}

// sortCounts orders by count descending, then value ascending.
func sortCounts(values []ValueCount) {
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
}
