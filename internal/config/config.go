package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/phishsentry/internal/model"
)

// Default configuration values.
const (
	// DefaultClassifierEndpoint is the local classifier service address.
	// We use 127.0.0.1 instead of localhost to avoid DNS resolution overhead
	// and potential issues with IPv6 resolution on some systems.
	DefaultClassifierEndpoint = "http://127.0.0.1:8000"

	// DefaultListenAddress is where the sentinel HTTP API listens.
	// Loopback only: the API exists for the browser extension and local
	// tooling, never for the network.
	DefaultListenAddress = "127.0.0.1:8035"

	// DefaultCacheTTL is the debounce window for repeated scans of the
	// same page. SPA route churn and tab refreshes inside this window are
	// suppressed; a real revisit after it re-scans.
	DefaultCacheTTL = 30 * time.Second

	// DefaultTimeout is the connection timeout for classifier requests.
	// The classifier runs model inference per page, so this is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize of 4 concurrent scans balances throughput with the
	// classifier's capacity. The local model scores one page at a time;
	// higher values just queue inside the service.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "phishsentry"

	// DefaultUserAgent identifies PhishSentry in HTTP requests.
	// A descriptive User-Agent lets site operators and the classifier
	// identify sentinel traffic in their logs.
	DefaultUserAgent = "phishsentry/1.0 (+https://github.com/nao1215/phishsentry)"

	// DefaultMaxBodySize limits the maximum response body size to read
	// when collecting page evidence. 5MB is sufficient for any realistic
	// HTML page while preventing memory exhaustion.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for PhishSentry.
// This struct is designed to be populated from CLI flags and the optional
// YAML file, then passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ServeConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// ClassifierEndpoint is the base URL of the classifier service.
	// All scan verdicts come from this endpoint; the sentinel itself never
	// classifies.
	ClassifierEndpoint string

	// ListenAddress is the "host:port" the sentinel HTTP API binds in
	// serve mode. Should stay on loopback.
	ListenAddress string

	// CacheTTL is the debounce window for repeated scans of the same
	// normalized URL. Zero or negative falls back to DefaultCacheTTL.
	CacheTTL time.Duration

	// Sensitivity tunes the classifier's scoring aggressiveness.
	// One of model.SensitivityRelaxed, SensitivityBalanced,
	// SensitivityStrict.
	Sensitivity string

	// Timeout is the connection timeout for classifier requests.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent scans when processing multiple
	// targets from the CLI.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishsentry in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of page URLs to scan from the CLI.
	Targets []string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/phishsentry on
	// Linux).
	DBDir string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read when
	// collecting page evidence. Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, addresses).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ClassifierEndpoint: DefaultClassifierEndpoint,
		ListenAddress:      DefaultListenAddress,
		CacheTTL:           DefaultCacheTTL,
		Sensitivity:        model.SensitivityBalanced,
		Timeout:            DefaultTimeout,
		BatchSize:          DefaultBatchSize,
		DBDir:              XDGDataDir(),
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for PhishSentry.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/phishsentry
// On macOS: ~/Library/Application Support/phishsentry
// On Windows: %LOCALAPPDATA%\phishsentry
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PhishSentry.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/phishsentry
// On macOS: ~/Library/Application Support/phishsentry
// On Windows: %APPDATA%\phishsentry
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for PhishSentry.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/phishsentry
// On macOS: ~/Library/Caches/phishsentry
// On Windows: %LOCALAPPDATA%\phishsentry\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.ClassifierEndpoint == "" {
		return ErrNoClassifierEndpoint
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// CacheTTL must be positive; a zero window would scan every navigation
	if c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	// BatchSize must be positive; zero would mean no scanning
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	switch c.Sensitivity {
	case model.SensitivityRelaxed, model.SensitivityBalanced, model.SensitivityStrict:
	default:
		return ErrInvalidSensitivity
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
