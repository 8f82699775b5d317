package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans and dashboard statistics",
		Long: `History renders the local scan history as a dashboard.

The dashboard shows recent scans newest first, lifetime totals, and today's
counters. The history is bounded: only the most recent scans are retained.

Examples:
  # Human-readable dashboard
  phishsentry history

  # JSON output for scripting
  phishsentry history --json

  # Markdown report written to a file
  phishsentry history --markdown -o dashboard.md`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Open read-only: the history command never writes
	opts := store.DefaultOptions()
	opts.CreateIfNotExists = false
	st, err := store.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("no scan history found (run a scan first): %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return outputDashboard(ctx, cfg, st)
}
