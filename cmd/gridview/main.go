// Command gridview browses CSV, XML and JSON datasets in the terminal,
// either from local files or from imports stored on the row service.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/remote"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File

	baseURL  string
	apiKey   string
	logLevel string
	logPath  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gridview",
		Short:         "Tabular viewer for CSV, XML and JSON data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "base-url", "", "row service address (default from GRIDVIEW_BASE_URL)")
	flags.StringVar(&a.apiKey, "api-key", "", "row service API key (default from GRIDVIEW_API_KEY)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")
	flags.StringVar(&a.logPath, "log-file", "", "write logs to this file; the interactive view logs nowhere otherwise")

	root.AddCommand(
		newViewCommand(a),
		newPrintCommand(a),
		newOpenCommand(a),
		newUploadCommand(a),
		newImportsCommand(a),
		newExportCommand(a),
		newDeleteCommand(a),
	)
	return root
}

// setup loads .env and the environment, then lets flags override.
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err == nil {
		// Logging is not configured yet; this goes to the default handler.
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.Client.BaseURL = a.baseURL
	}
	if a.apiKey != "" {
		cfg.Client.APIKey = a.apiKey
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	var w io.Writer = os.Stderr
	switch {
	case a.logPath != "":
		f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		w = f
	case isInteractive(cmd):
		w = io.Discard
	}
	a.logger = logging.SetupWriter(w, cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Annotations["interactive"] == "true"
}

// client returns a row service client bound to importID.
func (a *app) client(importID string) (*remote.Client, error) {
	return remote.New(remote.Options{
		BaseURL:  a.cfg.Client.BaseURL,
		ImportID: importID,
		APIKey:   a.cfg.Client.APIKey,
		Timeout:  a.cfg.Client.Timeout,
		Logger:   a.logger,
	})
}
