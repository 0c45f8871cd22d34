package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridview/internal/api"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

var (
	// ErrImportNotFound is returned when no import has the requested id.
	ErrImportNotFound = errors.New("import not found")

	// ErrInvalidImportID is returned for ids that are not UUIDs.
	ErrInvalidImportID = errors.New("invalid import id")

	// ErrNoFiles is returned when an import is started without files.
	ErrNoFiles = errors.New("no file provided")

	// ErrEmptyFile is returned for a file without a header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrTooManyFiles is returned when an import names more files than allowed.
	ErrTooManyFiles = errors.New("too many files in one import")
)

// Import is a stored, combined CSV upload.
type Import struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	TotalRows    int
	TotalColumns int
	Headers      []string
	FileNames    []string
	Status       string
	ErrorMessage string
}

// Info converts the import to its wire shape.
func (i *Import) Info() api.ImportInfo {
	return api.ImportInfo{
		ID:           i.ID.String(),
		CreatedAt:    i.CreatedAt,
		TotalRows:    i.TotalRows,
		TotalColumns: i.TotalColumns,
		Headers:      i.Headers,
		FileNames:    i.FileNames,
		Status:       i.Status,
		Error:        i.ErrorMessage,
	}
}

// ImportFile is one uploaded CSV file.
type ImportFile struct {
	Name   string
	Reader io.Reader
}

// RowsQuery selects a page of rows.
//
// Columns projects each row to the named keys; empty means every header.
// A non-empty Search keeps rows where any of the projected columns contains
// it, case-insensitively.
type RowsQuery struct {
	Page     int
	PageSize int
	Columns  []string
	Search   string
}

// ValueCount is how often one value occurs in a column.
type ValueCount struct {
	Value string
	Count int64
}

// FieldCounts holds the value distribution of one column, most frequent
// first and ties broken by value.
type FieldCounts struct {
	Column string
	Values []ValueCount
}

// EmptyValueLabel stands in for blank or missing values in count exports.
const EmptyValueLabel = "(empty)"

// ParseImportID parses an import id from a URL.
func ParseImportID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidImportID
	}
	return id, nil
}
