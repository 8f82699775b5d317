package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishsentry/internal/classifier"
	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/model"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [url]",
		Short: "Report a phishing page to the classifier service",
		Long: `Report submits a user phishing report to the classifier service.

Reports feed the classifier's training data. Submitting a report does not
change the local verdict history; the page keeps whatever verdict its last
scan produced until it is scanned again.

Examples:
  # Report a page
  phishsentry report https://fake-bank.example/login

  # Report with a reason and free-form comment
  phishsentry report -r "credential form on lookalike domain" \
    --comments "mimics bank.example login" https://fake-bank.example/login`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("endpoint", "e", config.DefaultClassifierEndpoint,
		"Base URL of the classifier service")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for classifier requests")
	cmd.Flags().StringP("reason", "r", "",
		"Short reason for the report")
	cmd.Flags().String("comments", "",
		"Free-form comments attached to the report")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.ClassifierEndpoint, err = cmd.Flags().GetString("endpoint")
	if err != nil {
		return err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	reason, err := cmd.Flags().GetString("reason")
	if err != nil {
		return err
	}
	comments, err := cmd.Flags().GetString("comments")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	clf := classifier.NewClient(cfg.ClassifierEndpoint,
		classifier.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		classifier.WithUserAgent(cfg.UserAgent),
		classifier.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	report := model.NewReportRequest(args[0], reason, comments, time.Now())
	if err := clf.Report(ctx, report); err != nil {
		return fmt.Errorf("failed to submit report: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report submitted for %s\n", args[0])
	return nil
}
