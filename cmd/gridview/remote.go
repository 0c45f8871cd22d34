package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/api"
	"github.com/JonMunkholm/gridview/internal/tui"
)

func newOpenCommand(a *app) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:         "open <import-id>",
		Short:       "Browse an import stored on the row service",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"interactive": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(args[0])
			if err != nil {
				return err
			}
			info, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}
			if info.Status != api.StatusCompleted {
				return fmt.Errorf("import %s is %s", info.ID, info.Status)
			}

			m := tui.NewRemote(importTitle(info), c, tui.Options{
				Grid:      gridOptions(a.cfg, a.logger),
				PageSize:  a.cfg.Grid.PageSize,
				ExportDir: exportDir,
				Logger:    a.logger,
			})
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for exports started from the view")
	return cmd
}

func importTitle(info *api.ImportInfo) string {
	return fmt.Sprintf("%s (%s)", strings.Join(info.FileNames, ", "), info.ID)
}

func newUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>...",
		Short: "Combine CSV files into a new import",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make(map[string]io.Reader, len(args))
			for _, p := range args {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				defer f.Close()
				files[filepath.Base(p)] = f
			}

			c, err := a.client("")
			if err != nil {
				return err
			}
			info, err := c.Upload(cmd.Context(), files)
			if err != nil {
				return err
			}
			a.logger.Info("import created", "import_id", info.ID, "rows", info.TotalRows)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\t%d columns\n", info.ID, info.TotalRows, info.TotalColumns)
			return nil
		},
	}
}

func newImportsCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client("")
			if err != nil {
				return err
			}
			imports, err := c.ListImports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			writeImports(cmd.OutOrStdout(), imports)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum imports to list")
	return cmd
}

// writeImports prints one aligned line per import.
func writeImports(w io.Writer, imports []api.ImportInfo) {
	header := []string{"ID", "CREATED", "STATUS", "ROWS", "FILES"}
	lines := [][]string{header}
	for _, imp := range imports {
		lines = append(lines, []string{
			imp.ID,
			imp.CreatedAt.Format("2006-01-02 15:04"),
			imp.Status,
			fmt.Sprint(imp.TotalRows),
			strings.Join(imp.FileNames, ","),
		})
	}

	widths := make([]int, len(header))
	for _, l := range lines {
		for i, v := range l {
			widths[i] = max(widths[i], runewidth.StringWidth(v))
		}
	}
	for _, l := range lines {
		for i, v := range l {
			if i == len(l)-1 {
				fmt.Fprintln(w, v)
				continue
			}
			fmt.Fprint(w, runewidth.FillRight(v, widths[i]), "  ")
		}
	}
}

func newExportCommand(a *app) *cobra.Command {
	var (
		columns []string
		counts  bool
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export <import-id>",
		Short: "Download an import, or its per-column value counts, as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := export(cmd.Context(), c, counts, columns, w)
			if err != nil {
				return err
			}
			a.logger.Info("export finished", "import_id", args[0], "bytes", n, "counts", counts)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "columns to export (default: all)")
	cmd.Flags().BoolVar(&counts, "counts", false, "export per-column value counts instead of rows")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func export(ctx context.Context, exp tui.Exporter, counts bool, columns []string, w io.Writer) (int64, error) {
	if counts {
		return exp.ExportCounts(ctx, columns, w)
	}
	return exp.ExportAll(ctx, columns, w)
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <import-id>",
		Short: "Delete an import and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(args[0])
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("import deleted", "import_id", args[0])
			return nil
		},
	}
}
