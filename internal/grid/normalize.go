package grid

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
)

// Node is one element of the materialized tree handed over by the tree
// collaborator. Path, XPath and Children are already computed upstream.
type Node struct {
	Tag        string            `json:"tag"`
	Path       string            `json:"path"`
	XPath      string            `json:"xpath"`
	Attributes map[string]string `json:"attributes"`
	Text       *string           `json:"text"`
	Children   []*Node           `json:"children"`
}

// MalformedRowError describes a flat row that was not a key/value map.
type MalformedRowError struct {
	Index int
	Type  string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("row %d is not a key/value map (got %s)", e.Index, e.Type)
}

// NormalizeTree flattens root into records in pre-order: a node is emitted
// before its children, and children are visited in order.
func NormalizeTree(root *Node) []Record {
	if root == nil {
		return nil
	}
	var out []Record
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		out = append(out, treeRecord(n))
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

func treeRecord(n *Node) Record {
	rec := Record{
		Kind:       KindTree,
		Path:       n.Path,
		Tag:        n.Tag,
		Attributes: make(map[string]string, len(n.Attributes)),
	}
	if n.Text != nil {
		text := *n.Text
		rec.Text = &text
	}
	// Attributes arrive as a map, so order within a node is by name.
	for _, name := range sortedKeys(n.Attributes) {
		rec.setAttr(name, n.Attributes[name])
	}
	return rec
}

// NormalizeFlat maps rows to flat records, preserving order.
//
// A row must be a map[string]string or map[string]any. Anything else is
// replaced by an empty placeholder record and reported to logger; the rest
// of the rows are unaffected. logger may be nil.
func NormalizeFlat(rows []any, logger *slog.Logger) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		rec, err := flatRecord(i, row)
		if err != nil {
			if logger != nil {
				logger.Warn("malformed row replaced with placeholder", "index", i, "error", err)
			}
			rec = Record{Kind: KindFlat, Attributes: map[string]string{}}
		}
		out[i] = rec
	}
	return out
}

func flatRecord(index int, row any) (Record, error) {
	switch r := row.(type) {
	case map[string]string:
		return NewFlatRecord(sortedKeys(r), r), nil
	case map[string]any:
		values := make(map[string]string, len(r))
		for k, v := range r {
			values[k] = stringify(v)
		}
		return NewFlatRecord(sortedKeys(values), values), nil
	default:
		return Record{}, &MalformedRowError{Index: index, Type: fmt.Sprintf("%T", row)}
	}
}

// stringify renders a decoded JSON scalar as a cell value.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
