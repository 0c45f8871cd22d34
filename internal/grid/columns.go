package grid

import "strings"

// DefaultColumnCap is the largest active column list used when no
// explicit selection exists.
const DefaultColumnCap = 100

// ColumnGroup is a run of active columns that share a prefix.
type ColumnGroup struct {
	Prefix  string
	Columns []string
}

// SelectionDefaulted is emitted when the resolver capped the column list
// because nothing was selected. The host decides whether to store Columns
// as the new selection.
type SelectionDefaulted struct {
	Columns []string
}

// Resolution is the output of ResolveColumns.
type Resolution struct {
	Active    []string
	Groups    []ColumnGroup
	Defaulted *SelectionDefaulted
}

// DiscoverColumns lists every column the records can show.
//
// Flat datasets use headers as declared. Tree datasets use path, tag and
// text followed by attr:<name> for each attribute name in first-seen order.
func DiscoverColumns(kind Kind, records []Record, headers []string) []string {
	if kind == KindFlat {
		out := make([]string, 0, len(headers))
		seen := make(map[string]bool, len(headers))
		for _, h := range headers {
			if seen[h] {
				continue
			}
			seen[h] = true
			out = append(out, h)
		}
		return out
	}

	out := []string{ColumnPath, ColumnTag, ColumnText}
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, name := range rec.attrOrder {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, AttrPrefix+name)
		}
	}
	return out
}

// ResolveColumns computes the active column list.
//
// A non-empty selection wins and is used in insertion order. Otherwise the
// first limit discovered columns are used when there are more than limit,
// and the cut is reported through Resolution.Defaulted. The selection is
// never modified. limit <= 0 means DefaultColumnCap.
func ResolveColumns(discovered []string, sel *Selection, limit int) Resolution {
	if limit <= 0 {
		limit = DefaultColumnCap
	}

	var res Resolution
	switch {
	case sel.Len() > 0:
		res.Active = sel.Columns()
	case len(discovered) > limit:
		res.Active = append([]string(nil), discovered[:limit]...)
		res.Defaulted = &SelectionDefaulted{Columns: append([]string(nil), res.Active...)}
	default:
		res.Active = append([]string(nil), discovered...)
	}
	res.Groups = GroupColumns(res.Active)
	return res
}

// Prefix returns the part of column before its first underscore, or the
// whole name when there is none.
func Prefix(column string) string {
	if i := strings.IndexByte(column, '_'); i >= 0 {
		return column[:i]
	}
	return column
}

// GroupColumns splits columns into consecutive runs of the same prefix.
//
// Runs keep the list order, so FlattenGroups(GroupColumns(c)) equals c for
// every input. When the same prefix shows up in two separate places it
// yields two groups.
func GroupColumns(columns []string) []ColumnGroup {
	var groups []ColumnGroup
	for _, c := range columns {
		p := Prefix(c)
		if n := len(groups); n > 0 && groups[n-1].Prefix == p {
			groups[n-1].Columns = append(groups[n-1].Columns, c)
			continue
		}
		groups = append(groups, ColumnGroup{Prefix: p, Columns: []string{c}})
	}
	return groups
}

// FlattenGroups concatenates the groups' columns in order.
func FlattenGroups(groups []ColumnGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.Columns...)
	}
	return out
}

// PrefixIndex maps each prefix to all of its columns in list order. It is
// used for bulk selection by prefix.
func PrefixIndex(columns []string) map[string][]string {
	idx := make(map[string][]string)
	for _, c := range columns {
		p := Prefix(c)
		idx[p] = append(idx[p], c)
	}
	return idx
}
