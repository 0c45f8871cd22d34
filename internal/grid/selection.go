package grid

// Selection is an insertion-ordered set of column names.
//
// An empty Selection means "no explicit selection" and lets the column
// defaults apply. The zero value is ready to use.
type Selection struct {
	order []string
	index map[string]int
}

// NewSelection returns a selection holding columns in the given order.
func NewSelection(columns ...string) *Selection {
	s := &Selection{}
	s.Set(columns)
	return s
}

// Len returns the number of selected columns.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Has reports whether column is selected.
func (s *Selection) Has(column string) bool {
	if s == nil || s.index == nil {
		return false
	}
	_, ok := s.index[column]
	return ok
}

// Columns returns the selected columns in insertion order.
func (s *Selection) Columns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Add appends column if it is not selected yet.
func (s *Selection) Add(column string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[column]; ok {
		return
	}
	s.index[column] = len(s.order)
	s.order = append(s.order, column)
}

// Remove drops column, keeping the order of the rest.
func (s *Selection) Remove(column string) {
	pos, ok := s.index[column]
	if !ok {
		return
	}
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	delete(s.index, column)
	for i := pos; i < len(s.order); i++ {
		s.index[s.order[i]] = i
	}
}

// Toggle adds column when absent and removes it when present.
func (s *Selection) Toggle(column string) {
	if s.Has(column) {
		s.Remove(column)
		return
	}
	s.Add(column)
}

// Set replaces the selection with columns.
func (s *Selection) Set(columns []string) {
	s.order = nil
	s.index = make(map[string]int, len(columns))
	for _, c := range columns {
		s.Add(c)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.index = nil
}

// SelectPrefix adds every column of the prefix group, in group order.
func (s *Selection) SelectPrefix(index map[string][]string, prefix string) {
	for _, c := range index[prefix] {
		s.Add(c)
	}
}

// DeselectPrefix removes every column of the prefix group.
func (s *Selection) DeselectPrefix(index map[string][]string, prefix string) {
	for _, c := range index[prefix] {
		s.Remove(c)
	}
}
