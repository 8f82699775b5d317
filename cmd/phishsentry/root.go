// Package main provides the entry point for the PhishSentry CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PhishSentry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phishsentry",
		Short: "Local phishing-scan sentinel for web pages",
		Long: `PhishSentry scans web pages for phishing and keeps a local verdict history.

It sends page evidence (URL, text, screenshot) to a local classifier service
and turns the verdict into badge and redirect decisions. Repeated scans of
the same page are debounced, phishing hits feed a daily threat counter, and
every verdict lands in a bounded scan history.

Use "phishsentry serve" to run the local HTTP API the browser extension
talks to, or "phishsentry scan" to score URLs directly from the terminal.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
