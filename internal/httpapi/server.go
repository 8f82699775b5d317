package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/pipeline"
)

// Default server timeouts. The API serves a local extension, so these are
// tight except for scan handling, which waits on the classifier.
const (
	// DefaultReadTimeout bounds reading one request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds writing one response. It must cover a
	// full classifier round trip for /v1/scan.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// Scanner runs page scans.
type Scanner interface {
	// Scan runs the pipeline for one trigger.
	Scan(ctx context.Context, trigger pipeline.Trigger) (*model.ScanOutcome, error)
}

// HistoryStore reads persisted scan data.
type HistoryStore interface {
	// History returns recorded scans, newest first.
	History(ctx context.Context) ([]model.HistoryEntry, error)

	// Stats aggregates dashboard numbers.
	Stats(ctx context.Context, now time.Time) (model.DashboardStats, error)
}

// Reporter forwards user reports and answers health probes.
type Reporter interface {
	// Report forwards a user-submitted phishing report.
	Report(ctx context.Context, report model.ReportRequest) error

	// Health probes the classifier.
	Health(ctx context.Context) error
}

// Server is the sentinel's local HTTP API server.
type Server struct {
	// httpServer is the underlying net/http server.
	httpServer *http.Server

	// scanner runs scans.
	scanner Scanner

	// store reads history and stats.
	store HistoryStore

	// reporter forwards reports and health probes.
	reporter Reporter

	// logger for structured logging.
	logger *slog.Logger

	// version is reported by the health endpoint.
	version string

	// now returns the current time. Injected for tests.
	now func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates the API server bound to addr.
func NewServer(addr string, scanner Scanner, store HistoryStore, reporter Reporter, opts ...Option) *Server {
	s := &Server{
		scanner:  scanner,
		store:    store,
		reporter: reporter,
		version:  "dev",
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	return s
}

// routes builds the request router.
func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/v1/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/v1/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/v1/report", s.handleReport).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/warning", s.handleWarning).Methods(http.MethodGet)

	r.Use(loggingMiddleware(s.logger))

	return r
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully. http.ErrServerClosed is swallowed; it is the
// normal shutdown signal, not a failure.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sentinel API listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
