package grid

import (
	"fmt"
	"testing"
)

func flat(kv ...string) Record {
	keys := make([]string, 0, len(kv)/2)
	vals := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		keys = append(keys, kv[i])
		vals[kv[i]] = kv[i+1]
	}
	return NewFlatRecord(keys, vals)
}

func column(recs []Record, col string) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = Value(r, col)
	}
	return out
}

// ============================================================================
// Filter
// ============================================================================

func TestFilter(t *testing.T) {
	tree := NormalizeTree(sampleTree())

	tests := []struct {
		name    string
		records []Record
		text    string
		want    int
	}{
		{"case-insensitive attribute match", []Record{flat("a", "Foo", "b", "bar")}, "OO", 1},
		{"no match", []Record{flat("a", "Foo", "b", "bar")}, "baz", 0},
		{"empty filter keeps all", []Record{flat("a", "x"), flat("a", "y")}, "", 2},
		{"tree path match", tree, "ROOT/A", 2},
		{"tree tag match", tree, "c", 1},
		{"tree text match", tree, "HELL", 1},
		{"tree attribute match", tree, "en", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.records, tt.text)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilter_FlatIgnoresPathTag(t *testing.T) {
	rec := flat("a", "1")
	rec.Path = "hidden"
	if Matches(rec, "hidden") {
		t.Error("flat records should only match on attribute values")
	}
}

// ============================================================================
// Sort
// ============================================================================

func TestSortState_Toggle(t *testing.T) {
	var s SortState
	s = s.Toggle("id")
	if s != (SortState{Column: "id", Dir: Ascending}) {
		t.Fatalf("first click = %+v", s)
	}
	s = s.Toggle("id")
	if s.Dir != Descending {
		t.Fatalf("second click on same column = %+v, want descending", s)
	}
	s = s.Toggle("id")
	if s.Dir != Ascending {
		t.Fatalf("third click = %+v, want ascending", s)
	}
	s = s.Toggle("id").Toggle("name")
	if s != (SortState{Column: "name", Dir: Ascending}) {
		t.Fatalf("switching column = %+v, want name asc", s)
	}
}

func TestSort(t *testing.T) {
	recs := []Record{
		flat("name", "banana"),
		flat("name", "Apple"),
		flat("other", "x"),
		flat("name", "cherry"),
	}
	coll := NewCollator("en")

	asc := column(Sort(recs, SortState{Column: "name"}, coll), "name")
	wantAsc := []string{"", "Apple", "banana", "cherry"}
	if fmt.Sprint(asc) != fmt.Sprint(wantAsc) {
		t.Errorf("asc = %q, want %q", asc, wantAsc)
	}

	desc := column(Sort(recs, SortState{Column: "name", Dir: Descending}, coll), "name")
	wantDesc := []string{"cherry", "banana", "Apple", ""}
	if fmt.Sprint(desc) != fmt.Sprint(wantDesc) {
		t.Errorf("desc = %q, want %q", desc, wantDesc)
	}

	if got := column(recs, "name"); got[0] != "banana" {
		t.Error("Sort must not reorder its input")
	}
}

func TestSort_NoColumnKeepsOrder(t *testing.T) {
	recs := []Record{flat("id", "2"), flat("id", "1")}
	got := column(Sort(recs, SortState{}, nil), "id")
	if got[0] != "2" || got[1] != "1" {
		t.Errorf("got %v, want input order", got)
	}
}

func TestParseSortDir(t *testing.T) {
	if ParseSortDir("desc") != Descending || ParseSortDir("asc") != Ascending || ParseSortDir("") != Ascending {
		t.Error("ParseSortDir mismatch")
	}
	if Descending.String() != "desc" || Ascending.String() != "asc" {
		t.Error("SortDir.String mismatch")
	}
}

// ============================================================================
// Grouping
// ============================================================================

func TestGroupRecords(t *testing.T) {
	const key = "pid"
	in := []Record{
		flat(key, "1", "n", "a"),
		flat(key, "2", "n", "c"),
		flat(key, "", "n", "d"),
		flat(key, "1", "n", "b"),
	}
	out := GroupRecords(in, []string{key, "n"}, key)

	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	wantNames := []string{"a", "b", "c", "d"}
	wantStart := []bool{true, false, true, false}
	wantKey := []string{"1", "", "2", ""}
	for i, gr := range out {
		if got := Value(gr.Record, "n"); got != wantNames[i] {
			t.Errorf("pos %d name = %q, want %q", i, got, wantNames[i])
		}
		if gr.IsGroupStart != wantStart[i] {
			t.Errorf("pos %d IsGroupStart = %v, want %v", i, gr.IsGroupStart, wantStart[i])
		}
		if gr.GroupKey != wantKey[i] {
			t.Errorf("pos %d GroupKey = %q, want %q", i, gr.GroupKey, wantKey[i])
		}
	}
}

func TestGroupRecords_SpecExample(t *testing.T) {
	const key = "pid"
	in := []Record{flat(key, "1", "n", "1a"), flat(key, "1", "n", "1b"), flat(key, "2", "n", "2"), flat(key, "", "n", "e")}
	out := GroupRecords(in, []string{key}, key)
	var got []string
	for _, gr := range out {
		got = append(got, Value(gr.Record, "n"))
	}
	if fmt.Sprint(got) != "[1a 1b 2 e]" {
		t.Errorf("order = %v", got)
	}
	if !out[0].IsGroupStart || out[1].IsGroupStart || !out[2].IsGroupStart || out[3].IsGroupStart {
		t.Errorf("group starts wrong: %+v", out)
	}
}

func TestGroupRecords_KeyNotActive(t *testing.T) {
	in := []Record{flat("pid", "2"), flat("pid", "1"), flat("pid", "2")}
	out := GroupRecords(in, []string{"other"}, "pid")
	for i, gr := range out {
		if gr.IsGroupStart {
			t.Errorf("pos %d flagged as group start", i)
		}
		if Value(gr.Record, "pid") != Value(in[i], "pid") {
			t.Errorf("pos %d reordered", i)
		}
	}
}

// ============================================================================
// Render Governor
// ============================================================================

func seq(n int) []GroupedRecord {
	out := make([]GroupedRecord, n)
	for i := range out {
		out[i] = GroupedRecord{Record: flat("i", fmt.Sprint(i))}
	}
	return out
}

func TestGovern(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		total         int
		wantRendered  int
		wantTruncated bool
		wantLogical   int
	}{
		{"over ceiling", 600, 0, 500, true, 600},
		{"under ceiling", 400, 0, 400, false, 400},
		{"exactly ceiling", 500, 0, 500, false, 500},
		{"remote total reported", 600, 12000, 500, true, 12000},
		{"empty", 0, 0, 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := seq(tt.n)
			got := Govern(in, 500, tt.total)
			if len(got.Rendered) != tt.wantRendered {
				t.Errorf("rendered = %d, want %d", len(got.Rendered), tt.wantRendered)
			}
			if got.Truncated != tt.wantTruncated {
				t.Errorf("truncated = %v, want %v", got.Truncated, tt.wantTruncated)
			}
			if got.LogicalCount != tt.wantLogical {
				t.Errorf("logical = %d, want %d", got.LogicalCount, tt.wantLogical)
			}
			if len(in) != tt.n {
				t.Error("input length changed")
			}
		})
	}
}

func TestGovern_KeepsFinalOrder(t *testing.T) {
	got := Govern(seq(10), 3, 0)
	for i, gr := range got.Rendered {
		if Value(gr.Record, "i") != fmt.Sprint(i) {
			t.Errorf("pos %d = %q", i, Value(gr.Record, "i"))
		}
	}
}
