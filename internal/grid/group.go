package grid

import "slices"

// DefaultGroupKey is the identifier column rows are clustered by.
const DefaultGroupKey = "practitionerInformation_practitionerId"

// GroupedRecord is a Record tagged with its grouping position.
type GroupedRecord struct {
	Record
	IsGroupStart bool
	GroupKey     string
}

// GroupRecords clusters records by the value of key.
//
// When key is not an active column the records come back unchanged and
// untagged. Otherwise each distinct non-empty value gets a contiguous
// bucket, buckets appear in first-seen order, and the first record of each
// bucket is flagged as a group start. Records with an empty key follow all
// buckets in their original order. Every input record appears exactly once.
func GroupRecords(records []Record, active []string, key string) []GroupedRecord {
	out := make([]GroupedRecord, 0, len(records))
	if key == "" || !slices.Contains(active, key) {
		for _, rec := range records {
			out = append(out, GroupedRecord{Record: rec})
		}
		return out
	}

	var order []string
	buckets := make(map[string][]Record)
	var loose []Record
	for _, rec := range records {
		v := Value(rec, key)
		if v == "" {
			loose = append(loose, rec)
			continue
		}
		if _, ok := buckets[v]; !ok {
			order = append(order, v)
		}
		buckets[v] = append(buckets[v], rec)
	}

	for _, v := range order {
		for i, rec := range buckets[v] {
			gr := GroupedRecord{Record: rec}
			if i == 0 {
				gr.IsGroupStart = true
				gr.GroupKey = v
			}
			out = append(out, gr)
		}
	}
	for _, rec := range loose {
		out = append(out, GroupedRecord{Record: rec})
	}
	return out
}
