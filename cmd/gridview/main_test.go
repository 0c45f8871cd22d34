package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/grid"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "name,city\nAnn,Oslo\n")
	b := writeFile(t, dir, "b.csv", "name,zip\nBob,0150\n")
	x := writeFile(t, dir, "doc.xml", `<root><item id="1"/></root>`)

	ds, err := loadDataset([]string{a, b}, 0, discard)
	if err != nil {
		t.Fatalf("loadDataset(csv) error = %v", err)
	}
	if ds.Kind != grid.KindFlat || strings.Join(ds.Headers, ",") != "name,city,zip" || len(ds.Records) != 2 {
		t.Errorf("csv dataset = %+v", ds)
	}

	ds, err = loadDataset([]string{x}, 0, discard)
	if err != nil {
		t.Fatalf("loadDataset(xml) error = %v", err)
	}
	if ds.Kind != grid.KindTree || len(ds.Records) != 2 {
		t.Errorf("tree dataset kind = %v records = %d", ds.Kind, len(ds.Records))
	}

	if _, err := loadDataset([]string{a, x}, 0, discard); err == nil {
		t.Error("mixing CSV and XML should fail")
	}
}

func TestPrintDataset(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "people.csv", "name,city\nBob,Oslo\nann,Bergen\nCy,Oslo\n")
	ds, err := loadDataset([]string{p}, 0, discard)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		flags printFlags
		opts  grid.Options
		want  string
	}{
		{
			name: "as loaded",
			want: "name,city\nBob,Oslo\nann,Bergen\nCy,Oslo\n",
		},
		{
			name:  "sorted descending",
			flags: printFlags{sort: "name", dir: "desc"},
			want:  "name,city\nCy,Oslo\nBob,Oslo\nann,Bergen\n",
		},
		{
			name:  "filtered and projected",
			flags: printFlags{filter: "oslo", columns: []string{"name"}},
			want:  "name\nBob\nCy\n",
		},
		{
			name: "capped",
			opts: grid.Options{RenderCeiling: 1},
			want: "name,city\nBob,Oslo\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = discard
			var buf bytes.Buffer
			if err := printDataset(&buf, ds, tt.opts, tt.flags); err != nil {
				t.Fatalf("printDataset() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteImports(t *testing.T) {
	var buf bytes.Buffer
	writeImports(&buf, []api.ImportInfo{{
		ID:        "7b0c7d1e",
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Status:    api.StatusCompleted,
		TotalRows: 12,
		FileNames: []string{"a.csv", "b.csv"},
	}})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[0], "ID        CREATED") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-03-01 09:30  completed  12    a.csv,b.csv") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"view", "print", "open", "upload", "imports", "export", "delete"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
