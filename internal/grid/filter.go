package grid

import "strings"

// Filter keeps the records containing text, ignoring case.
//
// Flat records match on any attribute value. Tree records also match on
// path, tag and text. An empty text keeps everything. For remote datasets
// this only sees the loaded page.
func Filter(records []Record, text string) []Record {
	if text == "" {
		return records
	}
	needle := strings.ToLower(text)
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if Matches(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether rec contains needle. needle must already be
// lowercased.
func Matches(rec Record, needle string) bool {
	if rec.Kind == KindTree {
		if containsFold(rec.Path, needle) || containsFold(rec.Tag, needle) {
			return true
		}
		if rec.Text != nil && containsFold(*rec.Text, needle) {
			return true
		}
	}
	for _, v := range rec.Attributes {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}
