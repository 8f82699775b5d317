package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/phishsentry/internal/cache"
	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/evidence"
	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/router"
	"github.com/nao1215/phishsentry/internal/urlnorm"
)

// TriggerKind says who asked for the scan.
type TriggerKind int

const (
	// TriggerAuto is a navigation-driven scan. Failures are silent.
	TriggerAuto TriggerKind = iota

	// TriggerUser is an explicit user request. Failures surface to the
	// caller so the user sees why no verdict appeared.
	TriggerUser
)

// Trigger describes one scan request entering the pipeline.
type Trigger struct {
	// TabID identifies the browser tab, when one exists. CLI scans use 0.
	TabID int

	// URL is the raw page URL as observed, fragment and all.
	URL string

	// Kind records whether navigation or the user asked for this scan.
	Kind TriggerKind

	// Evidence carries page text and screenshot captured by the caller.
	// When nil, the orchestrator's collector fetches the page itself.
	Evidence *evidence.Evidence
}

// Classifier produces verdicts for scan requests.
type Classifier interface {
	// Analyze submits a scan request and returns the verdict.
	Analyze(ctx context.Context, req *model.ScanRequest) (*model.ScanVerdict, error)
}

// Recorder persists scan results.
type Recorder interface {
	// IncrementThreatCount bumps the daily counter and returns the new value.
	IncrementThreatCount(ctx context.Context, now time.Time) (int, error)

	// ThreatCount reads today's counter without mutating it.
	ThreatCount(ctx context.Context, now time.Time) (int, error)

	// AppendHistory records one completed scan.
	AppendHistory(ctx context.Context, entry model.HistoryEntry) error
}

// Orchestrator runs the scan pipeline.
//
// Design decision: One Orchestrator serves all triggers rather than a
// pipeline instance per scan. The debounce cache and the store are shared
// state; building them per scan would defeat both.
type Orchestrator struct {
	// cache debounces repeated scans of the same normalized URL.
	cache *cache.DebounceCache

	// collector gathers evidence when the trigger carries none.
	collector evidence.Collector

	// classifier produces verdicts.
	classifier Classifier

	// recorder persists counters and history.
	recorder Recorder

	// router maps verdicts to tab actions.
	router *router.Router

	// sensitivity is the global classifier sensitivity.
	sensitivity string

	// siteConfigs holds per-site overrides, may be nil.
	siteConfigs *config.File

	// logger for structured logging.
	logger *slog.Logger

	// now returns the current time. Injected for tests.
	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithSensitivity sets the global classifier sensitivity.
func WithSensitivity(sensitivity string) Option {
	return func(o *Orchestrator) {
		if sensitivity != "" {
			o.sensitivity = sensitivity
		}
	}
}

// WithSiteConfigs sets per-site overrides.
func WithSiteConfigs(cf *config.File) Option {
	return func(o *Orchestrator) {
		o.siteConfigs = cf
	}
}

// WithClock overrides the time source. Tests use this to cross midnight
// without waiting for one.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an Orchestrator from its collaborators.
func New(debounce *cache.DebounceCache, collector evidence.Collector, clf Classifier, recorder Recorder, rt *router.Router, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:       debounce,
		collector:   collector,
		classifier:  clf,
		recorder:    recorder,
		router:      rt,
		sensitivity: model.SensitivityBalanced,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// Scan runs the full pipeline for one trigger.
//
// The outcome is always non-nil. The error is non-nil only for
// user-initiated scans that could not reach the classifier; auto scans
// swallow that failure and report StatusAborted.
//
// Design decision: A failed classification does NOT release the debounce
// reservation. Releasing it would make every navigation retry against a
// classifier that is already down; the TTL expiry is the retry schedule.
func (o *Orchestrator) Scan(ctx context.Context, trigger Trigger) (*model.ScanOutcome, error) {
	outcome := &model.ScanOutcome{
		URL:   trigger.URL,
		TabID: trigger.TabID,
	}

	if !urlnorm.IsScannable(trigger.URL) {
		outcome.Status = model.StatusSkipped
		o.logger.Debug("scan skipped", "url", trigger.URL, "reason", "not a web page")
		return outcome, nil
	}

	normalized := urlnorm.Normalize(trigger.URL)
	outcome.URL = normalized

	if o.siteSkipped(normalized) {
		outcome.Status = model.StatusSkipped
		o.logger.Debug("scan skipped", "url", normalized, "reason", "site excluded by config")
		return outcome, nil
	}

	now := o.now()
	if !o.cache.TryReserve(normalized, now) && trigger.Kind == TriggerAuto {
		outcome.Status = model.StatusDuplicate
		outcome.ThreatCount = o.threatCount(ctx, now)
		o.logger.Debug("scan suppressed", "url", normalized, "ttl", o.cache.TTL())
		return outcome, nil
	}

	ev := o.collectEvidence(ctx, trigger, normalized)

	req := &model.ScanRequest{
		URL:         normalized,
		Text:        ev.Text,
		Screenshot:  ev.Screenshot,
		RequestID:   uuid.NewString(),
		Sensitivity: o.siteSensitivity(normalized),
	}
	outcome.RequestID = req.RequestID

	verdict, err := o.classifier.Analyze(ctx, req)
	if err != nil {
		outcome.Status = model.StatusAborted
		o.logger.Warn("scan aborted",
			"url", normalized,
			"requestID", req.RequestID,
			"error", err,
		)
		if trigger.Kind == TriggerUser {
			return outcome, err
		}
		return outcome, nil
	}

	action := o.router.Route(normalized, verdict)

	outcome.Status = model.StatusCompleted
	outcome.Verdict = verdict
	outcome.Action = &action
	outcome.ThreatCount = o.recordResult(ctx, normalized, verdict)

	o.logger.Info("scan completed",
		"url", normalized,
		"requestID", req.RequestID,
		"verdict", verdict.Verdict.String(),
		"score", verdict.Score,
		"redirect", action.Redirect,
	)

	return outcome, nil
}

// collectEvidence uses caller-supplied evidence when present, otherwise
// fetches the page. Collection never fails; at worst the classifier scores
// the bare URL.
func (o *Orchestrator) collectEvidence(ctx context.Context, trigger Trigger, normalized string) evidence.Evidence {
	if trigger.Evidence != nil {
		return *trigger.Evidence
	}

	ev := o.collector.Collect(ctx, normalized)
	if ev.Text == "" && ev.Screenshot == "" {
		o.logger.Debug("evidence unavailable, scanning URL only", "url", normalized)
	}
	return ev
}

// recordResult updates the counter and history for a completed scan and
// returns today's threat count. Persistence failures are logged, never
// surfaced: the verdict already exists and the user should see it.
func (o *Orchestrator) recordResult(ctx context.Context, normalized string, verdict *model.ScanVerdict) int {
	now := o.now()

	count := 0
	if verdict.Verdict == model.VerdictPhishing {
		c, err := o.recorder.IncrementThreatCount(ctx, now)
		if err != nil {
			o.logger.Warn("failed to update threat counter", "error", err)
		} else {
			count = c
		}
	} else {
		count = o.threatCount(ctx, now)
	}

	entry := model.HistoryEntry{
		Timestamp: now,
		URL:       normalized,
		Verdict:   verdict.Verdict,
		Score:     verdict.Score,
	}
	if err := o.recorder.AppendHistory(ctx, entry); err != nil {
		o.logger.Warn("failed to append history", "url", normalized, "error", err)
	}

	return count
}

// threatCount reads today's counter, treating read failures as zero.
func (o *Orchestrator) threatCount(ctx context.Context, now time.Time) int {
	count, err := o.recorder.ThreatCount(ctx, now)
	if err != nil {
		o.logger.Warn("failed to read threat counter", "error", err)
		return 0
	}
	return count
}

// siteSkipped reports whether per-site config excludes this page.
func (o *Orchestrator) siteSkipped(normalized string) bool {
	if o.siteConfigs == nil {
		return false
	}
	host := hostname(normalized)
	if host == "" {
		return false
	}
	return o.siteConfigs.GetSiteConfig(host).Skip
}

// siteSensitivity returns the effective sensitivity for this page.
func (o *Orchestrator) siteSensitivity(normalized string) string {
	if o.siteConfigs != nil {
		if host := hostname(normalized); host != "" {
			if sc := o.siteConfigs.GetSiteConfig(host); sc.Sensitivity != "" {
				return sc.Sensitivity
			}
		}
	}
	return o.sensitivity
}

// hostname extracts the host from a normalized URL, empty on parse failure.
func hostname(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
