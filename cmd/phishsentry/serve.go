package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishsentry/internal/cache"
	"github.com/nao1215/phishsentry/internal/classifier"
	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/evidence"
	"github.com/nao1215/phishsentry/internal/httpapi"
	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/pipeline"
	"github.com/nao1215/phishsentry/internal/router"
	"github.com/nao1215/phishsentry/internal/store"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local sentinel HTTP API",
		Long: `Serve runs the local HTTP API the browser extension talks to.

The extension posts page evidence to /v1/scan on every navigation; the
sentinel debounces repeats, asks the classifier for a verdict, and answers
with the badge and redirect decision for the tab. Flagged tabs land on the
/warning interstitial served by the same process.

The API binds to loopback by default. It is meant for the local extension
and tooling, not for the network.

Endpoints:
  POST /v1/scan     run one scan, returns the verdict and tab action
  GET  /v1/history  recorded scans, newest first
  GET  /v1/stats    dashboard statistics
  POST /v1/report   forward a user phishing report to the classifier
  GET  /healthz     sentinel and classifier health
  GET  /warning     interstitial page for blocked tabs

Examples:
  # Run with defaults (listens on 127.0.0.1:8035)
  phishsentry serve

  # Custom listen address and classifier endpoint
  phishsentry serve --listen 127.0.0.1:9000 --endpoint http://127.0.0.1:8100`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the sentinel HTTP API binds to")
	cmd.Flags().StringP("endpoint", "e", config.DefaultClassifierEndpoint,
		"Base URL of the classifier service")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for classifier requests")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"Debounce window for repeated scans of the same URL")
	cmd.Flags().StringP("sensitivity", "s", model.SensitivityBalanced,
		"Classifier sensitivity (relaxed, balanced, strict)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishsentry in current or home directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping sentinel...")
		cancel()
	}()

	return runServe(ctx, cfg, logger)
}

// buildServeConfig creates a Config from serve command flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ListenAddress, err = cmd.Flags().GetString("listen")
	if err != nil {
		return nil, err
	}

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

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, nil
}

// runServe wires the pipeline and runs the HTTP API until the context is
// cancelled.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

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

	// The interstitial lives on this server, so redirects point back at us.
	rt := router.New(router.WithWarningURL("http://" + cfg.ListenAddress + router.DefaultWarningPath))

	orch := pipeline.New(cache.New(cache.WithTTL(cfg.CacheTTL)), collector, clf, st, rt,
		pipeline.WithLogger(logger),
		pipeline.WithSensitivity(cfg.Sensitivity),
		pipeline.WithSiteConfigs(cfg.SiteConfigs),
	)

	server := httpapi.NewServer(cfg.ListenAddress, orch, st, clf,
		httpapi.WithLogger(logger),
		httpapi.WithVersion(getVersion()),
	)

	fmt.Printf("PhishSentry listening on http://%s\n", cfg.ListenAddress)
	fmt.Printf("Classifier endpoint: %s\n", cfg.ClassifierEndpoint)

	return server.ListenAndServe(ctx)
}
