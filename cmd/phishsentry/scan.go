package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishsentry/internal/cache"
	"github.com/nao1215/phishsentry/internal/classifier"
	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/evidence"
	"github.com/nao1215/phishsentry/internal/log"
	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/pipeline"
	"github.com/nao1215/phishsentry/internal/report"
	"github.com/nao1215/phishsentry/internal/router"
	"github.com/nao1215/phishsentry/internal/store"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url]",
		Short: "Scan web pages for phishing",
		Long: `Scan sends page evidence to the classifier service and prints the verdict.

For each URL it fetches the page text, asks the classifier for a score, and
records the verdict in the local scan history. Phishing hits increment the
daily threat counter.

CLI scans are user-initiated: they bypass the debounce window that protects
automatic scans, and classifier failures are reported instead of swallowed.

Examples:
  # Scan a single page
  phishsentry scan https://login.example.com/signin

  # Scan several pages concurrently
  phishsentry scan https://a.example https://b.example https://c.example

  # Use a stricter sensitivity and JSON output
  phishsentry scan --sensitivity strict --json https://a.example

  # Use a custom configuration file
  phishsentry scan -c myconfig.yaml https://a.example

Configuration file (.phishsentry) example:
  defaults:
    sensitivity: balanced
  sites:
    bank.example.com:
      sensitivity: strict
    intranet.example.com:
      skip: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Classifier connection flags
	cmd.Flags().StringP("endpoint", "e", config.DefaultClassifierEndpoint,
		"Base URL of the classifier service")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for classifier requests")

	// Scan behavior flags
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"Debounce window for repeated scans of the same URL")
	cmd.Flags().StringP("sensitivity", "s", model.SensitivityBalanced,
		"Classifier sensitivity (relaxed, balanced, strict)")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishsentry in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.ClassifierEndpoint, err = cmd.Flags().GetString("endpoint")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl")
	if err != nil {
		return nil, err
	}

	cfg.Sensitivity, err = cmd.Flags().GetString("sensitivity")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Get positional arguments (page URLs)
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// URLs and credentials in log output are sanitized by the secure handler.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"endpoint", cfg.ClassifierEndpoint,
		"sensitivity", cfg.Sensitivity,
		"batchSize", cfg.BatchSize,
	)

	// Open the verdict store. History and the threat counter always persist.
	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	orch := newOrchestrator(cfg, st, logger)

	// Use batch processor for parallel scanning if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		if err := runBatchScan(ctx, cfg, orch, logger); err != nil {
			return err
		}
	} else if err := runSequentialScan(ctx, cfg, orch, logger); err != nil {
		return err
	}

	// Render the updated dashboard after scanning
	return outputDashboard(ctx, cfg, st)
}

// newOrchestrator wires the scan pipeline from the configuration.
func newOrchestrator(cfg *config.Config, st *store.Store, logger *slog.Logger) *pipeline.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	clf := classifier.NewClient(cfg.ClassifierEndpoint,
		classifier.WithHTTPClient(httpClient),
		classifier.WithUserAgent(cfg.UserAgent),
		classifier.WithLogger(logger),
	)

	collector := evidence.NewHTTPCollector(httpClient,
		evidence.WithUserAgent(cfg.UserAgent),
		evidence.WithMaxBodySize(cfg.MaxBodySize),
		evidence.WithLogger(logger),
	)

	debounce := cache.New(cache.WithTTL(cfg.CacheTTL))

	return pipeline.New(debounce, collector, clf, st, router.New(),
		pipeline.WithLogger(logger),
		pipeline.WithSensitivity(cfg.Sensitivity),
		pipeline.WithSiteConfigs(cfg.SiteConfigs),
	)
}

// runSequentialScan scans targets one at a time.
func runSequentialScan(ctx context.Context, cfg *config.Config, orch *pipeline.Orchestrator, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Scanning %s...\n", target)
		startTime := time.Now()

		outcome, err := orch.Scan(ctx, pipeline.Trigger{URL: target, Kind: pipeline.TriggerUser})
		if err != nil {
			logger.Error("scan failed", "url", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		printOutcome(outcome)
		fmt.Printf("Scan completed in %s\n\n", elapsed.Round(time.Millisecond))
	}

	return nil
}

// runBatchScan scans multiple targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, cfg *config.Config, orch *pipeline.Orchestrator, logger *slog.Logger) error {
	fmt.Printf("Starting batch scan of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(orch,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(outcome *model.ScanOutcome, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] %s\n", index+1, len(cfg.Targets), cfg.Targets[index])
		printOutcome(outcome)
		fmt.Println()
	})

	elapsed := time.Since(startTime)
	fmt.Printf("Batch scan completed in %s\n\n", elapsed.Round(time.Millisecond))

	return err
}

// printOutcome prints one scan result in human-readable form.
func printOutcome(outcome *model.ScanOutcome) {
	if outcome == nil {
		return
	}

	switch outcome.Status {
	case model.StatusCompleted:
		fmt.Printf("  verdict: %s (score %d/100)\n", outcome.Verdict.Verdict, outcome.Verdict.Score)
		if outcome.Action != nil && outcome.Action.Redirect {
			fmt.Println("  action:  BLOCK (would redirect to warning page)")
		} else if outcome.Action != nil && outcome.Action.ShowBadge {
			fmt.Printf("  action:  badge %q\n", outcome.Action.BadgeText)
		} else {
			fmt.Println("  action:  none")
		}
		if outcome.ThreatCount > 0 {
			fmt.Printf("  threats today: %d\n", outcome.ThreatCount)
		}
	case model.StatusSkipped:
		fmt.Println("  skipped: URL is not scannable")
	case model.StatusDuplicate:
		fmt.Println("  skipped: recently scanned (debounce window)")
	case model.StatusAborted:
		fmt.Println("  aborted: classifier unavailable")
	}
}

// outputDashboard reads the persisted history and renders it in the
// requested format.
func outputDashboard(ctx context.Context, cfg *config.Config, st *store.Store) error {
	now := time.Now()

	entries, err := st.History(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	stats, err := st.Stats(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	dashboard := &model.Dashboard{
		GeneratedAt: now,
		Stats:       stats,
		Entries:     entries,
	}

	return outputReport(cfg, dashboard)
}

// outputReport outputs the dashboard in the requested format.
func outputReport(cfg *config.Config, dashboard *model.Dashboard) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Scan history may reveal the user's browsing, so owner-only access
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full dashboard with metadata wrapper)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(dashboard)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(dashboard)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output)
	_, err := writer.Write(dashboard)
	return err
}
