package grid

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleTree() *Node {
	return &Node{
		Tag:        "root",
		Path:       "root",
		Attributes: map[string]string{"version": "2"},
		Children: []*Node{
			{
				Tag:  "a",
				Path: "root/a",
				Children: []*Node{
					{Tag: "b", Path: "root/a/b", Text: strPtr("hello"), Attributes: map[string]string{"lang": "en", "id": "7"}},
				},
			},
			{Tag: "c", Path: "root/c", Text: strPtr("bye")},
		},
	}
}

func TestNormalizeTree_PreOrder(t *testing.T) {
	recs := NormalizeTree(sampleTree())

	var paths []string
	for _, r := range recs {
		paths = append(paths, r.Path)
		if r.Kind != KindTree {
			t.Errorf("record %s kind = %v, want tree", r.Path, r.Kind)
		}
	}
	want := "root,root/a,root/a/b,root/c"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}

	if got := Value(recs[2], ColumnText); got != "hello" {
		t.Errorf("text = %q, want %q", got, "hello")
	}
	if got := Value(recs[1], ColumnText); got != "" {
		t.Errorf("nil text = %q, want empty", got)
	}
	if got := recs[2].AttributeNames(); strings.Join(got, ",") != "id,lang" {
		t.Errorf("attribute order = %v, want [id lang]", got)
	}
}

func TestNormalizeTree_Nil(t *testing.T) {
	if recs := NormalizeTree(nil); recs != nil {
		t.Errorf("NormalizeTree(nil) = %v, want nil", recs)
	}
}

func TestNormalizeTree_DecodesCollaboratorJSON(t *testing.T) {
	raw := `{"tag":"doc","path":"doc","xpath":"doc","attributes":{},"text":null,
		"children":[{"tag":"item","path":"doc/item","xpath":"doc/item","attributes":{"k":"v"},"text":"x","children":[]}]}`
	var root Node
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	recs := NormalizeTree(&root)
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if got := Value(recs[1], "attr:k"); got != "v" {
		t.Errorf("attr:k = %q, want %q", got, "v")
	}
}

func TestNormalizeFlat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rows := []any{
		map[string]string{"id": "1", "name": "Al"},
		"not a row",
		nil,
		map[string]any{"id": 2.0, "name": "Bob", "active": true, "note": nil},
	}
	recs := NormalizeFlat(rows, logger)

	if len(recs) != len(rows) {
		t.Fatalf("len = %d, want %d", len(recs), len(rows))
	}
	if got := Value(recs[0], "name"); got != "Al" {
		t.Errorf("rec0 name = %q, want %q", got, "Al")
	}
	for _, i := range []int{1, 2} {
		if !recs[i].IsPlaceholder() {
			t.Errorf("rec%d should be a placeholder", i)
		}
	}
	if got := Value(recs[3], "id"); got != "2" {
		t.Errorf("rec3 id = %q, want %q", got, "2")
	}
	if got := Value(recs[3], "active"); got != "true" {
		t.Errorf("rec3 active = %q, want %q", got, "true")
	}
	if got := Value(recs[3], "note"); got != "" {
		t.Errorf("rec3 note = %q, want empty", got)
	}
	if !strings.Contains(buf.String(), "malformed row") {
		t.Errorf("expected malformed row diagnostic, log was %q", buf.String())
	}
}

func TestValue_KeepsZero(t *testing.T) {
	rec := NewFlatRecord([]string{"n", "e"}, map[string]string{"n": "0", "e": ""})
	tests := []struct {
		column string
		want   string
	}{
		{"n", "0"},
		{"e", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := Value(rec, tt.column); got != tt.want {
			t.Errorf("Value(%q) = %q, want %q", tt.column, got, tt.want)
		}
	}
}

func TestValue_TreeUnknownColumn(t *testing.T) {
	rec := NormalizeTree(sampleTree())[0]
	if got := Value(rec, "version"); got != "" {
		t.Errorf("bare attribute name should not resolve on tree records, got %q", got)
	}
	if got := Value(rec, "attr:version"); got != "2" {
		t.Errorf("attr:version = %q, want %q", got, "2")
	}
}
