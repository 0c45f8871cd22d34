package core

import (
	"fmt"
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with numbered placeholders.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder creates a new WhereBuilder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add adds an equality condition. Empty string values are skipped.
func (wb *WhereBuilder) Add(expr string, value any) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", expr, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddImport restricts rows to one import.
func (wb *WhereBuilder) AddImport(id any) {
	wb.Add("import_id", id)
}

// AddSearch keeps rows where any of the columns contains query,
// case-insensitively. Column names are bound as parameters.
func (wb *WhereBuilder) AddSearch(query string, columns []string) {
	if query == "" || len(columns) == 0 {
		return
	}

	patternIdx := wb.argIndex
	wb.args = append(wb.args, likePattern(query))
	wb.argIndex++

	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("row_data->>$%d ILIKE $%d", wb.argIndex, patternIdx)
		wb.args = append(wb.args, col)
		wb.argIndex++
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
}

// NextArgIndex returns the next placeholder number.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the WHERE clause (with a leading space) and its arguments.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE match, escaping wildcards.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// excludedColumns returns headers not named in keep, never nil.
func excludedColumns(headers, keep []string) []string {
	out := []string{}
	if len(keep) == 0 {
		return out
	}
	want := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		want[k] = struct{}{}
	}
	for _, h := range headers {
		if _, ok := want[h]; !ok {
			out = append(out, h)
		}
	}
	return out
}
