package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/markerbridge/internal/control"
	"github.com/vietddude/markerbridge/internal/markers"
	"github.com/vietddude/markerbridge/internal/source"
)

var (
	commentsPath   string
	nonInteractive bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import review comments into the open session as markers",
	Run:   runImport,
}

func init() {
	importCmd.Flags().StringVar(&commentsPath, "file", "", "comment export file (.json or .csv)")
	importCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; failures are skipped or reported")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	comments, err := source.Load(commentsPath)
	if err != nil {
		slog.Error("Failed to load comments", "error", err)
		os.Exit(1)
	}
	if len(comments) == 0 {
		slog.Info("No comments to import")
		return
	}

	prompts := control.Prompts{Progress: printProgress}
	if !nonInteractive {
		terminal := newTerminalPrompts(os.Stdin, os.Stdout)
		prompts.Error = terminal
		prompts.Conflict = terminal
	}

	app, err := control.NewBridge(cfg, prompts)
	if err != nil {
		slog.Error("Failed to initialize bridge", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to connect to host", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		app.Stop(shutdownCtx)
	}()

	slog.Info("Importing comments", "file", commentsPath, "count", len(comments))

	result, err := app.RunImport(ctx, comments)
	if err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}

	printResult(result)
}

func printProgress(phase string, percent int, status string) {
	slog.Info("Import progress", "phase", phase, "percent", percent, "status", status)
}

func printResult(result *markers.Result) {
	fmt.Printf("\nSession %q: %d created, %d skipped, %d failed\n\n",
		result.SessionName, result.Created, result.Skipped, result.Failed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "MARKER\tTIMECODE\tSTATUS\tDETAIL")
	for _, item := range result.Results {
		if item.Status == markers.StatusCreated {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\tlocation %d\n", item.Name, item.Timecode, item.Status, item.Location)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Name, item.Timecode, item.Status, item.Reason)
	}
	_ = w.Flush()
}
