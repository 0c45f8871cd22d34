package grid

import "strings"

// Kind discriminates the two record shapes flowing through the pipeline.
type Kind int

const (
	// KindFlat records come from row collections (CSV imports).
	KindFlat Kind = iota
	// KindTree records come from a pre-order walk of a tree (XML documents).
	KindTree
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindTree:
		return "tree"
	case KindFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// Reserved column names for tree records.
const (
	ColumnPath = "path"
	ColumnTag  = "tag"
	ColumnText = "text"

	// AttrPrefix marks a tree column that reads a node attribute.
	AttrPrefix = "attr:"
)

// Record is the normalized unit of the pipeline.
//
// Tree records carry Path, Tag and Text from their source node. Flat
// records leave those empty and keep the row in Attributes.
type Record struct {
	Kind       Kind
	Path       string
	Tag        string
	Text       *string
	Attributes map[string]string

	// attrOrder is the first-seen order of Attributes keys.
	attrOrder []string
}

// NewFlatRecord builds a flat record from ordered keys and a value map.
// Keys missing from values are skipped. Duplicate keys are kept once.
func NewFlatRecord(keys []string, values map[string]string) Record {
	rec := Record{Kind: KindFlat, Attributes: make(map[string]string, len(values))}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		rec.setAttr(k, v)
	}
	return rec
}

// AttributeNames returns the attribute names in first-seen order.
func (r Record) AttributeNames() []string {
	out := make([]string, len(r.attrOrder))
	copy(out, r.attrOrder)
	return out
}

// IsPlaceholder reports whether r is the empty stand-in for a malformed row.
func (r Record) IsPlaceholder() bool {
	return r.Kind == KindFlat && len(r.Attributes) == 0
}

func (r *Record) setAttr(key, value string) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]string)
	}
	if _, exists := r.Attributes[key]; !exists {
		r.attrOrder = append(r.attrOrder, key)
	}
	r.Attributes[key] = value
}

// Value resolves the display value of column for rec.
//
// Tree records answer path, tag, text and attr:<name>. Flat records answer
// from Attributes. Absent and empty values both return "".
func Value(rec Record, column string) string {
	if rec.Kind == KindTree {
		switch {
		case column == ColumnPath:
			return rec.Path
		case column == ColumnTag:
			return rec.Tag
		case column == ColumnText:
			if rec.Text == nil {
				return ""
			}
			return *rec.Text
		case strings.HasPrefix(column, AttrPrefix):
			return rec.Attributes[strings.TrimPrefix(column, AttrPrefix)]
		default:
			return ""
		}
	}
	return rec.Attributes[column]
}
