package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/phishsentry/internal/cache"
	"github.com/nao1215/phishsentry/internal/config"
	"github.com/nao1215/phishsentry/internal/evidence"
	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/router"
)

// fakeClassifier returns a canned verdict or error and records requests.
type fakeClassifier struct {
	mu      sync.Mutex
	verdict model.ScanVerdict
	err     error
	calls   int
	lastReq model.ScanRequest
}

func (f *fakeClassifier) Analyze(_ context.Context, req *model.ScanRequest) (*model.ScanVerdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = *req
	if f.err != nil {
		return nil, f.err
	}
	verdict := f.verdict
	return &verdict, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRecorder is an in-memory Recorder with day-aware counting.
type fakeRecorder struct {
	mu      sync.Mutex
	count   int
	day     time.Time
	history []model.HistoryEntry
}

func midnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (f *fakeRecorder) IncrementThreatCount(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.day.Equal(midnight(now)) {
		f.count = 0
		f.day = midnight(now)
	}
	f.count++
	return f.count, nil
}

func (f *fakeRecorder) ThreatCount(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.day.Equal(midnight(now)) {
		return 0, nil
	}
	return f.count, nil
}

func (f *fakeRecorder) AppendHistory(_ context.Context, entry model.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeRecorder) historyLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

// fakeCollector returns fixed evidence.
type fakeCollector struct {
	ev evidence.Evidence
}

func (f *fakeCollector) Collect(_ context.Context, _ string) evidence.Evidence {
	return f.ev
}

func newTestOrchestrator(clf Classifier, rec Recorder, opts ...Option) *Orchestrator {
	return New(
		cache.New(),
		&fakeCollector{ev: evidence.Evidence{Text: "page text"}},
		clf,
		rec,
		router.New(),
		opts...,
	)
}

// TestOrchestratorScan tests the end-to-end scan flow.
func TestOrchestratorScan(t *testing.T) {
	t.Parallel()

	t.Run("phishing page completes with redirect and counter bump", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 88, Verdict: model.VerdictPhishing}}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(clf, rec)

		outcome, err := o.Scan(context.Background(), Trigger{TabID: 7, URL: "http://phish.example/login#top"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if outcome.Status != model.StatusCompleted {
			t.Errorf("Status = %v, want completed", outcome.Status)
		}
		if outcome.URL != "http://phish.example/login" {
			t.Errorf("URL = %q, want fragment stripped", outcome.URL)
		}
		if outcome.TabID != 7 {
			t.Errorf("TabID = %d, want 7", outcome.TabID)
		}
		if outcome.RequestID == "" {
			t.Error("RequestID is empty")
		}
		if outcome.Action == nil || !outcome.Action.Redirect {
			t.Errorf("Action = %+v, want redirect", outcome.Action)
		}
		if outcome.Action.BadgeText != router.BadgePhishingText {
			t.Errorf("BadgeText = %q, want %q", outcome.Action.BadgeText, router.BadgePhishingText)
		}
		if outcome.ThreatCount != 1 {
			t.Errorf("ThreatCount = %d, want 1", outcome.ThreatCount)
		}
		if rec.historyLen() != 1 {
			t.Errorf("history length = %d, want 1", rec.historyLen())
		}
		if clf.lastReq.Text != "page text" {
			t.Errorf("classifier saw text %q, want collected evidence", clf.lastReq.Text)
		}
	})

	t.Run("safe page completes without badge or counter", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 4, Verdict: model.VerdictSafe}}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(clf, rec)

		outcome, err := o.Scan(context.Background(), Trigger{URL: "https://good.example/"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if outcome.Status != model.StatusCompleted {
			t.Errorf("Status = %v, want completed", outcome.Status)
		}
		if outcome.Action.ShowBadge || outcome.Action.Redirect {
			t.Errorf("Action = %+v, want neither badge nor redirect", outcome.Action)
		}
		if outcome.ThreatCount != 0 {
			t.Errorf("ThreatCount = %d, want 0", outcome.ThreatCount)
		}
		if rec.historyLen() != 1 {
			t.Errorf("history length = %d, want 1", rec.historyLen())
		}
	})

	t.Run("non-web url is skipped before classification", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{}
		o := newTestOrchestrator(clf, &fakeRecorder{})

		for _, raw := range []string{"chrome://settings", "about:blank", "file:///etc/hosts"} {
			outcome, err := o.Scan(context.Background(), Trigger{URL: raw})
			if err != nil {
				t.Fatalf("Scan(%q) error = %v", raw, err)
			}
			if outcome.Status != model.StatusSkipped {
				t.Errorf("Scan(%q) status = %v, want skipped", raw, outcome.Status)
			}
		}
		if clf.callCount() != 0 {
			t.Errorf("classifier calls = %d, want 0", clf.callCount())
		}
	})

	t.Run("repeat navigation inside window is suppressed", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 4, Verdict: model.VerdictSafe}}
		o := newTestOrchestrator(clf, &fakeRecorder{})

		if outcome, _ := o.Scan(context.Background(), Trigger{URL: "http://a.example/page#one"}); outcome.Status != model.StatusCompleted {
			t.Fatalf("first scan status = %v, want completed", outcome.Status)
		}
		// Same page, different fragment: same normalized identity.
		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/page#two"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if outcome.Status != model.StatusDuplicate {
			t.Errorf("second scan status = %v, want duplicate", outcome.Status)
		}
		if clf.callCount() != 1 {
			t.Errorf("classifier calls = %d, want 1", clf.callCount())
		}
	})

	t.Run("user trigger scans through the window", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 4, Verdict: model.VerdictSafe}}
		o := newTestOrchestrator(clf, &fakeRecorder{})

		if _, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/"}); err != nil {
			t.Fatalf("first scan error = %v", err)
		}
		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/", Kind: TriggerUser})
		if err != nil {
			t.Fatalf("user scan error = %v", err)
		}
		if outcome.Status != model.StatusCompleted {
			t.Errorf("user scan status = %v, want completed", outcome.Status)
		}
		if clf.callCount() != 2 {
			t.Errorf("classifier calls = %d, want 2", clf.callCount())
		}
	})

	t.Run("classifier failure aborts silently for auto scans", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{err: errors.New("connection refused")}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(clf, rec)

		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/"})
		if err != nil {
			t.Fatalf("auto scan error = %v, want nil", err)
		}
		if outcome.Status != model.StatusAborted {
			t.Errorf("Status = %v, want aborted", outcome.Status)
		}
		if outcome.Verdict != nil || outcome.Action != nil {
			t.Errorf("outcome = %+v, want no verdict and no action", outcome)
		}
		if rec.historyLen() != 0 {
			t.Errorf("history length = %d, want 0", rec.historyLen())
		}

		// The reservation stands: the immediate retry is suppressed, not
		// re-attempted against a classifier that is already down.
		retry, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/"})
		if err != nil {
			t.Fatalf("retry error = %v", err)
		}
		if retry.Status != model.StatusDuplicate {
			t.Errorf("retry status = %v, want duplicate", retry.Status)
		}
		if clf.callCount() != 1 {
			t.Errorf("classifier calls = %d, want 1", clf.callCount())
		}
	})

	t.Run("classifier failure surfaces for user scans", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("connection refused")
		o := newTestOrchestrator(&fakeClassifier{err: wantErr}, &fakeRecorder{})

		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/", Kind: TriggerUser})
		if !errors.Is(err, wantErr) {
			t.Errorf("user scan error = %v, want %v", err, wantErr)
		}
		if outcome == nil || outcome.Status != model.StatusAborted {
			t.Errorf("outcome = %+v, want aborted", outcome)
		}
	})

	t.Run("site config skips excluded hosts", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{}
		cf := &config.File{Sites: map[string]config.SiteConfig{
			"intranet.corp.example": {Skip: true},
		}}
		o := newTestOrchestrator(clf, &fakeRecorder{}, WithSiteConfigs(cf))

		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://intranet.corp.example/wiki"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if outcome.Status != model.StatusSkipped {
			t.Errorf("Status = %v, want skipped", outcome.Status)
		}
		if clf.callCount() != 0 {
			t.Errorf("classifier calls = %d, want 0", clf.callCount())
		}
	})

	t.Run("site sensitivity overrides global", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 4, Verdict: model.VerdictSafe}}
		cf := &config.File{Sites: map[string]config.SiteConfig{
			"bank.example": {Sensitivity: model.SensitivityStrict},
		}}
		o := newTestOrchestrator(clf, &fakeRecorder{},
			WithSensitivity(model.SensitivityRelaxed),
			WithSiteConfigs(cf),
		)

		if _, err := o.Scan(context.Background(), Trigger{URL: "https://bank.example/login"}); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if clf.lastReq.Sensitivity != model.SensitivityStrict {
			t.Errorf("Sensitivity = %q, want strict", clf.lastReq.Sensitivity)
		}

		if _, err := o.Scan(context.Background(), Trigger{URL: "https://other.example/"}); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if clf.lastReq.Sensitivity != model.SensitivityRelaxed {
			t.Errorf("Sensitivity = %q, want relaxed", clf.lastReq.Sensitivity)
		}
	})

	t.Run("caller evidence wins over collector", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 4, Verdict: model.VerdictSafe}}
		o := newTestOrchestrator(clf, &fakeRecorder{})

		ev := &evidence.Evidence{Text: "tab captured text", Screenshot: "aWNvbg=="}
		if _, err := o.Scan(context.Background(), Trigger{URL: "http://a.example/", Evidence: ev}); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if clf.lastReq.Text != "tab captured text" {
			t.Errorf("Text = %q, want caller evidence", clf.lastReq.Text)
		}
		if clf.lastReq.Screenshot != "aWNvbg==" {
			t.Errorf("Screenshot = %q, want caller screenshot", clf.lastReq.Screenshot)
		}
	})

	t.Run("second phishing verdict on new day restarts counter", func(t *testing.T) {
		t.Parallel()

		clf := &fakeClassifier{verdict: model.ScanVerdict{Score: 90, Verdict: model.VerdictPhishing}}
		rec := &fakeRecorder{}

		current := time.Date(2026, 3, 10, 23, 55, 0, 0, time.Local)
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return current
		}
		o := newTestOrchestrator(clf, rec, WithClock(clock))

		outcome, err := o.Scan(context.Background(), Trigger{URL: "http://one.example/"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if outcome.ThreatCount != 1 {
			t.Errorf("ThreatCount = %d, want 1", outcome.ThreatCount)
		}

		mu.Lock()
		current = time.Date(2026, 3, 11, 0, 5, 0, 0, time.Local)
		mu.Unlock()

		outcome, err = o.Scan(context.Background(), Trigger{URL: "http://two.example/"})
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if outcome.ThreatCount != 1 {
			t.Errorf("ThreatCount after midnight = %d, want 1", outcome.ThreatCount)
		}
	})
}
