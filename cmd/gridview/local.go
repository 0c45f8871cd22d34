package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/tree"
	"github.com/JonMunkholm/gridview/internal/tui"
)

func gridOptions(cfg *config.Config, logger *slog.Logger) grid.Options {
	return grid.Options{
		ColumnCap:     cfg.Grid.ColumnCap,
		RenderCeiling: cfg.Grid.RenderCeiling,
		GroupKey:      cfg.Grid.GroupKey,
		Locale:        cfg.Grid.Locale,
		Logger:        logger,
	}
}

// loadDataset reads one XML or JSON tree, or one or more CSV files
// combined by header union.
func loadDataset(paths []string, maxFileSize int64, logger *slog.Logger) (grid.Dataset, error) {
	if len(paths) == 1 {
		switch strings.ToLower(filepath.Ext(paths[0])) {
		case ".xml", ".json":
			root, err := tree.Load(paths[0])
			if err != nil {
				return grid.Dataset{}, err
			}
			nodes, depth := tree.Stats(root)
			logger.Info("tree loaded", "file", paths[0], "nodes", nodes, "depth", depth)
			return grid.TreeDataset(root), nil
		}
	}

	files := make([]core.ImportFile, 0, len(paths))
	for _, p := range paths {
		if ext := strings.ToLower(filepath.Ext(p)); ext != ".csv" {
			return grid.Dataset{}, fmt.Errorf("%s: only CSV files can be combined", filepath.Base(p))
		}
		f, err := os.Open(p)
		if err != nil {
			return grid.Dataset{}, err
		}
		defer f.Close()
		files = append(files, core.ImportFile{Name: filepath.Base(p), Reader: f})
	}

	combined, err := core.CombineCSV(files, maxFileSize)
	if err != nil {
		return grid.Dataset{}, err
	}
	rows := make([]any, len(combined.Rows))
	for i, r := range combined.Rows {
		rows[i] = r
	}
	logger.Info("csv loaded", "files", len(files), "rows", len(rows), "columns", len(combined.Headers))
	return grid.FlatDataset(combined.Headers, rows, logger), nil
}

func newViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "view <file>...",
		Short:       "Browse local CSV files or an XML/JSON tree",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"interactive": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args, a.cfg.Import.MaxFileSize, a.logger)
			if err != nil {
				return err
			}
			m := tui.NewLocal(strings.Join(args, ", "), ds, tui.Options{
				Grid:   gridOptions(a.cfg, a.logger),
				Logger: a.logger,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

type printFlags struct {
	columns []string
	sort    string
	dir     string
	filter  string
	limit   int
}

func newPrintCommand(a *app) *cobra.Command {
	var f printFlags
	cmd := &cobra.Command{
		Use:   "print <file>...",
		Short: "Run the table pipeline on local files and write the rows as CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args, a.cfg.Import.MaxFileSize, a.logger)
			if err != nil {
				return err
			}
			opts := gridOptions(a.cfg, a.logger)
			if f.limit > 0 {
				opts.RenderCeiling = f.limit
			}
			return printDataset(cmd.OutOrStdout(), ds, opts, f)
		},
	}
	cmd.Flags().StringSliceVarP(&f.columns, "columns", "c", nil, "columns to show (default: discovered, capped)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "column to sort by")
	cmd.Flags().StringVar(&f.dir, "dir", "asc", "sort direction: asc or desc")
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "keep rows containing this text")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum rows to write (default: render ceiling)")
	return cmd
}

// printDataset writes the governed rows of one pipeline run as CSV. A
// trailing notice goes to stderr when rows were cut.
func printDataset(w io.Writer, ds grid.Dataset, opts grid.Options, f printFlags) error {
	v := grid.NewView(opts, grid.NewSelection(f.columns...))
	v.Load(ds)
	v.SetFilter(f.filter)
	if f.sort != "" {
		v.SetSort(grid.SortState{Column: f.sort, Dir: grid.ParseSortDir(f.dir)})
	}
	res := v.Compute()

	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows.Rendered {
		for i, c := range res.Columns {
			record[i] = grid.Value(row.Record, c)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if res.Rows.Truncated {
		fmt.Fprintf(os.Stderr, "Showing first %d of %d rows\n", len(res.Rows.Rendered), res.Rows.LogicalCount)
	}
	return nil
}
