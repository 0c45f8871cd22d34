// Package core stores combined CSV imports in PostgreSQL and serves their
// rows a page at a time.
//
// The package holds the server-side logic independent of HTTP. Handlers in
// package web and the migrate step in cmd/server use it directly.
//
// # Imports
//
// [Service.CreateImport] combines one or more CSV files into a single
// import. Headers are the union of every file's header row in first-seen
// order, and missing cells become empty strings. Each row is stored as a
// JSONB object in grid_rows, written with COPY in batches of
// [config.ImportConfig.BatchSize]. Concurrent imports are bounded by an
// [ImportLimiter]; callers past the bound wait up to
// [config.ImportConfig.MaxWaitTime] before getting [ErrTooManyImports].
//
// # Queries
//
//   - [Service.Rows] returns one page, projected to the requested columns,
//     optionally filtered by a case-insensitive substring search.
//   - [Service.Columns] returns the headers and their prefix groups.
//   - [Service.StreamRows] walks every row for CSV export.
//   - [Service.FieldCounts] returns per-column value distributions.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - IMP001-IMP004: Import errors (not found, bad id, busy, too many files)
//   - QRY001-QRY002: Query errors (page range, missing columns)
//   - DB001-DB007: Database errors
//   - FILE001-FILE005: File errors (size, format, encoding)
//   - REQ001-REQ002: Request cancelled or timed out
package core
