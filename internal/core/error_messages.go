package core

// # Error Codes Reference
//
// User-facing messages carry a code that can be quoted to support.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import not found
//	IMP002 - Invalid import id
//	IMP003 - System busy: too many imports in progress
//	IMP004 - Too many files in one import
//
// # Query Errors (QRY001-QRY099)
//
//	QRY001 - Invalid page or page size
//	QRY002 - Columns required
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Query cancelled by the server
//	DB007 - Deadlock
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Encoding error
//	FILE004 - No file
//	FILE005 - Empty file
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the request id.
//
// # Matching
//
// Sentinel and typed errors are matched first with errors.Is / errors.As,
// then PostgreSQL SQLSTATE codes, then case-insensitive substrings of the
// message. The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgImportNotFound = UserMessage{"Import not found", "Check the import id or upload the files again", "IMP001"}
	msgInvalidID      = UserMessage{"Invalid import id", "Import ids are UUIDs as returned by the upload", "IMP002"}
	msgBusy           = UserMessage{"Too many imports in progress", "Please wait a moment and try again", "IMP003"}
	msgTooManyFiles   = UserMessage{"Too many files in one import", "Combine fewer files per upload", "IMP004"}
	msgInvalidPage    = UserMessage{"Invalid page or page size", "Use a page of 1 or more and a page size within the allowed range", "QRY001"}
	msgColumnsNeeded  = UserMessage{"No columns selected", "Select at least one column", "QRY002"}
	msgDuplicate      = UserMessage{"A record with this key already exists", "Please try again", "DB001"}
	msgConnRefused    = UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}
	msgConnReset      = UserMessage{"Database connection was interrupted", "Please try again", "DB005"}
	msgQueryCancelled = UserMessage{"The query took too long", "Narrow the search or request a smaller page", "DB006"}
	msgDeadlock       = UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}
	msgTooLarge       = UserMessage{"File exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}
	msgInvalidCSV     = UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with properly closed quotes", "FILE002"}
	msgEncoding       = UserMessage{"File contains invalid characters", "Save the file as UTF-8", "FILE003"}
	msgNoFile         = UserMessage{"No file was selected", "Please select at least one CSV file", "FILE004"}
	msgEmptyFile      = UserMessage{"The uploaded file is empty", "Upload a CSV file with a header row", "FILE005"}
	msgCancelled      = UserMessage{"Request was cancelled", "Please try again", "REQ001"}
	msgTimeout        = UserMessage{"Request timed out", "Try again or request less data", "REQ002"}
)

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// ErrInvalidPage is returned for page or page size values out of range.
var ErrInvalidPage = errors.New("invalid page or page size")

// ErrColumnsRequired is returned when an operation needs at least one column.
var ErrColumnsRequired = errors.New("columns required")

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrImportNotFound, msgImportNotFound},
	{ErrInvalidImportID, msgInvalidID},
	{ErrTooManyImports, msgBusy},
	{ErrTooManyFiles, msgTooManyFiles},
	{ErrInvalidPage, msgInvalidPage},
	{ErrColumnsRequired, msgColumnsNeeded},
	{ErrNoFiles, msgNoFile},
	{ErrEmptyFile, msgEmptyFile},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
}

// sqlStateMessages maps PostgreSQL error codes.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgDuplicate,
	"57014": msgQueryCancelled,
	"40P01": msgDeadlock,
}

// errorPatterns is the last resort, matched against the lowercased message.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgTooLarge},
	{"invalid csv", msgInvalidCSV},
	{"encoding error", msgEncoding},
	{"connection refused", msgConnRefused},
	{"connection reset", msgConnReset},
	{"deadlock", msgDeadlock},
	{"timeout", msgTimeout},
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	var tooLarge *FileTooLargeError
	if errors.As(err, &tooLarge) {
		return msgTooLarge
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
