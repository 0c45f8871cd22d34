package grid

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDir is the direction of the single active sort.
type SortDir int

const (
	Ascending SortDir = iota
	Descending
)

// String returns "asc" or "desc".
func (d SortDir) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseSortDir maps "desc" to Descending and anything else to Ascending.
func ParseSortDir(s string) SortDir {
	if s == "desc" {
		return Descending
	}
	return Ascending
}

// SortState is the active sort column and direction. An empty Column means
// the records keep their incoming order.
type SortState struct {
	Column string
	Dir    SortDir
}

// Toggle returns the state after the user picks column: the active column
// flips direction, any other column starts ascending.
func (s SortState) Toggle(column string) SortState {
	if s.Column == column {
		if s.Dir == Ascending {
			return SortState{Column: column, Dir: Descending}
		}
		return SortState{Column: column, Dir: Ascending}
	}
	return SortState{Column: column, Dir: Ascending}
}

// Collator compares cell values for a locale. It is not safe for
// concurrent use.
type Collator struct {
	c *collate.Collator
}

// NewCollator returns a collator for a BCP 47 tag such as "en" or "de-CH".
// Unparseable tags fall back to the root locale.
func NewCollator(tag string) *Collator {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.Und
	}
	return &Collator{c: collate.New(lang)}
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(a, b)
}

// Sort returns a sorted copy of records. Ties keep no particular secondary
// order beyond what the stable sort gives.
func Sort(records []Record, state SortState, coll *Collator) []Record {
	out := slices.Clone(records)
	if state.Column == "" || len(out) < 2 {
		return out
	}
	if coll == nil {
		coll = NewCollator("und")
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		cmp := coll.Compare(Value(a, state.Column), Value(b, state.Column))
		if state.Dir == Descending {
			return -cmp
		}
		return cmp
	})
	return out
}
