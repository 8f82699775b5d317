package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/pipeline"
)

// fakeScanner records the trigger and returns a canned outcome.
type fakeScanner struct {
	outcome *model.ScanOutcome
	err     error
	last    pipeline.Trigger
}

func (f *fakeScanner) Scan(_ context.Context, trigger pipeline.Trigger) (*model.ScanOutcome, error) {
	f.last = trigger
	if f.err != nil {
		return &model.ScanOutcome{Status: model.StatusAborted, URL: trigger.URL}, f.err
	}
	return f.outcome, nil
}

// fakeHistoryStore returns canned history and stats.
type fakeHistoryStore struct {
	entries []model.HistoryEntry
	stats   model.DashboardStats
	err     error
}

func (f *fakeHistoryStore) History(_ context.Context) ([]model.HistoryEntry, error) {
	return f.entries, f.err
}

func (f *fakeHistoryStore) Stats(_ context.Context, _ time.Time) (model.DashboardStats, error) {
	return f.stats, f.err
}

// fakeReporter records reports and returns canned errors.
type fakeReporter struct {
	reportErr error
	healthErr error
	last      model.ReportRequest
}

func (f *fakeReporter) Report(_ context.Context, report model.ReportRequest) error {
	f.last = report
	return f.reportErr
}

func (f *fakeReporter) Health(_ context.Context) error {
	return f.healthErr
}

func newTestServer(scanner Scanner, store HistoryStore, reporter Reporter) *Server {
	return NewServer("127.0.0.1:0", scanner, store, reporter, WithVersion("test"))
}

// TestHandleScan tests the scan endpoint.
func TestHandleScan(t *testing.T) {
	t.Parallel()

	t.Run("completed scan returns outcome", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{outcome: &model.ScanOutcome{
			Status: model.StatusCompleted,
			URL:    "http://phish.example/login",
			Verdict: &model.ScanVerdict{
				Score:   88,
				Verdict: model.VerdictPhishing,
			},
			Action: &model.TabAction{
				ShowBadge:  true,
				BadgeText:  "!",
				BadgeColor: "#F44336",
				Redirect:   true,
			},
			ThreatCount: 3,
		}}
		s := newTestServer(scanner, &fakeHistoryStore{}, &fakeReporter{})

		body := `{"url":"http://phish.example/login#top","tab_id":9,"trigger":"user","text":"verify account"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		var outcome model.ScanOutcome
		if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if outcome.Status != model.StatusCompleted {
			t.Errorf("Status = %v, want completed", outcome.Status)
		}
		if outcome.ThreatCount != 3 {
			t.Errorf("ThreatCount = %d, want 3", outcome.ThreatCount)
		}

		if scanner.last.Kind != pipeline.TriggerUser {
			t.Errorf("trigger kind = %v, want user", scanner.last.Kind)
		}
		if scanner.last.TabID != 9 {
			t.Errorf("trigger tab = %d, want 9", scanner.last.TabID)
		}
		if scanner.last.Evidence == nil || scanner.last.Evidence.Text != "verify account" {
			t.Errorf("trigger evidence = %+v, want captured text", scanner.last.Evidence)
		}
	})

	t.Run("missing url is rejected", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(`{"tab_id":1}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("classifier failure answers bad gateway", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{err: errors.New("connection refused")}
		s := newTestServer(scanner, &fakeHistoryStore{}, &fakeReporter{})

		body := `{"url":"http://a.example/","trigger":"user"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("auto aborted scan still answers ok", func(t *testing.T) {
		t.Parallel()

		// The orchestrator swallows classifier failures for auto scans and
		// returns an aborted outcome with a nil error.
		scanner := &fakeScanner{outcome: &model.ScanOutcome{
			Status: model.StatusAborted,
			URL:    "http://a.example/",
		}}
		s := newTestServer(scanner, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(`{"url":"http://a.example/"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var outcome model.ScanOutcome
		if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if outcome.Status != model.StatusAborted {
			t.Errorf("Status = %v, want aborted", outcome.Status)
		}
	})
}

// TestHandleHistory tests the history endpoint.
func TestHandleHistory(t *testing.T) {
	t.Parallel()

	t.Run("returns entries", func(t *testing.T) {
		t.Parallel()

		store := &fakeHistoryStore{entries: []model.HistoryEntry{
			{
				Timestamp: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC),
				URL:       "http://phish.example/",
				Verdict:   model.VerdictPhishing,
				Score:     90,
			},
		}}
		s := newTestServer(&fakeScanner{}, store, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp historyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if len(resp.Entries) != 1 || resp.Entries[0].Verdict != model.VerdictPhishing {
			t.Errorf("Entries = %+v, want one phishing entry", resp.Entries)
		}
	})

	t.Run("empty history yields empty array", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), `"entries":[]`) {
			t.Errorf("body = %s, want empty entries array", rec.Body.String())
		}
	})

	t.Run("store failure answers internal error", func(t *testing.T) {
		t.Parallel()

		store := &fakeHistoryStore{err: errors.New("database locked")}
		s := newTestServer(&fakeScanner{}, store, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

// TestHandleStats tests the stats endpoint.
func TestHandleStats(t *testing.T) {
	t.Parallel()

	store := &fakeHistoryStore{stats: model.DashboardStats{
		TotalScans:   10,
		ScansToday:   4,
		ThreatsToday: 2,
	}}
	s := newTestServer(&fakeScanner{}, store, &fakeReporter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats model.DashboardStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if stats.TotalScans != 10 || stats.ThreatsToday != 2 {
		t.Errorf("stats = %+v, want canned values", stats)
	}
}

// TestHandleReport tests report forwarding.
func TestHandleReport(t *testing.T) {
	t.Parallel()

	t.Run("forwards and answers accepted", func(t *testing.T) {
		t.Parallel()

		reporter := &fakeReporter{}
		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, reporter)

		body := `{"url":"http://phish.example/","reason":"fake login","comments":"looks like my bank"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if reporter.last.URL != "http://phish.example/" || reporter.last.Reason != "fake login" {
			t.Errorf("forwarded report = %+v", reporter.last)
		}
		if reporter.last.Timestamp == "" {
			t.Error("forwarded report has no timestamp")
		}
	})

	t.Run("missing url is rejected", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader(`{"reason":"x"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("forwarding failure answers bad gateway", func(t *testing.T) {
		t.Parallel()

		reporter := &fakeReporter{reportErr: errors.New("unreachable")}
		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, reporter)

		req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader(`{"url":"http://a.example/"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}

// TestHandleHealth tests the health probe.
func TestHandleHealth(t *testing.T) {
	t.Parallel()

	t.Run("healthy classifier", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		var resp healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if resp.Status != "ok" || resp.Classifier != "ok" || resp.Version != "test" {
			t.Errorf("health = %+v", resp)
		}
	})

	t.Run("unreachable classifier still answers ok", func(t *testing.T) {
		t.Parallel()

		reporter := &fakeReporter{healthErr: errors.New("refused")}
		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, reporter)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if resp.Classifier != "unreachable" {
			t.Errorf("Classifier = %q, want unreachable", resp.Classifier)
		}
	})
}

// TestHandleWarning tests the interstitial page.
func TestHandleWarning(t *testing.T) {
	t.Parallel()

	t.Run("phishing interstitial shows score and original url", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/warning?score=88&verdict=phishing&ref=http%3A%2F%2Fphish.example%2Flogin", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		out := rec.Body.String()
		for _, want := range []string{"88/100", "phishing page", "http://phish.example/login"} {
			if !strings.Contains(out, want) {
				t.Errorf("page missing %q", want)
			}
		}
	})

	t.Run("suspicious verdict changes label", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(&fakeScanner{}, &fakeHistoryStore{}, &fakeReporter{})

		req := httptest.NewRequest(http.MethodGet, "/warning?score=76&verdict=suspicious&ref=http%3A%2F%2Fodd.example%2F", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), "suspicious page") {
			t.Error("page missing suspicious label")
		}
	})
}
