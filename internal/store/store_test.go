package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/phishsentry/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		s, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()
	})

	t.Run("refuses missing database without create option", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("Open() expected error for missing database, got nil")
		}
	})
}

// TestThreatCounter tests daily counting and the lazy midnight rollover.
func TestThreatCounter(t *testing.T) {
	t.Parallel()

	t.Run("increments within the same day", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()
		now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)

		if count, err := s.IncrementThreatCount(ctx, now); err != nil || count != 1 {
			t.Fatalf("first increment = %d, %v; want 1, nil", count, err)
		}
		if count, err := s.IncrementThreatCount(ctx, now.Add(time.Hour)); err != nil || count != 2 {
			t.Fatalf("second increment = %d, %v; want 2, nil", count, err)
		}
		if count, err := s.ThreatCount(ctx, now.Add(2*time.Hour)); err != nil || count != 2 {
			t.Fatalf("ThreatCount = %d, %v; want 2, nil", count, err)
		}
	})

	t.Run("restarts at one after midnight", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()
		evening := time.Date(2026, 3, 10, 23, 50, 0, 0, time.Local)
		nextMorning := time.Date(2026, 3, 11, 0, 10, 0, 0, time.Local)

		if _, err := s.IncrementThreatCount(ctx, evening); err != nil {
			t.Fatalf("evening increment error = %v", err)
		}
		if _, err := s.IncrementThreatCount(ctx, evening); err != nil {
			t.Fatalf("evening increment error = %v", err)
		}

		count, err := s.IncrementThreatCount(ctx, nextMorning)
		if err != nil {
			t.Fatalf("morning increment error = %v", err)
		}
		if count != 1 {
			t.Errorf("count after midnight = %d, want 1", count)
		}
	})

	t.Run("stale count reads as zero without mutating", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()
		yesterday := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
		today := time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)

		if _, err := s.IncrementThreatCount(ctx, yesterday); err != nil {
			t.Fatalf("increment error = %v", err)
		}

		// Reading across the boundary reports zero.
		if count, err := s.ThreatCount(ctx, today); err != nil || count != 0 {
			t.Fatalf("ThreatCount today = %d, %v; want 0, nil", count, err)
		}
		// The stored row is untouched: yesterday still reads its value.
		if count, err := s.ThreatCount(ctx, yesterday); err != nil || count != 1 {
			t.Fatalf("ThreatCount yesterday = %d, %v; want 1, nil", count, err)
		}
	})

	t.Run("empty counter reads as zero", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		if count, err := s.ThreatCount(context.Background(), time.Now()); err != nil || count != 0 {
			t.Fatalf("ThreatCount = %d, %v; want 0, nil", count, err)
		}
	})
}

// TestHistory tests bounded, newest-first scan history.
func TestHistory(t *testing.T) {
	t.Parallel()

	t.Run("returns entries newest first", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			entry := model.HistoryEntry{
				Timestamp: base.Add(time.Duration(i) * time.Minute),
				URL:       fmt.Sprintf("http://site%d.example/", i),
				Verdict:   model.VerdictSafe,
				Score:     i,
			}
			if err := s.AppendHistory(ctx, entry); err != nil {
				t.Fatalf("AppendHistory error = %v", err)
			}
		}

		entries, err := s.History(ctx)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("len(entries) = %d, want 3", len(entries))
		}
		if entries[0].URL != "http://site2.example/" {
			t.Errorf("entries[0].URL = %q, want newest entry first", entries[0].URL)
		}
		if entries[2].URL != "http://site0.example/" {
			t.Errorf("entries[2].URL = %q, want oldest entry last", entries[2].URL)
		}
		if !entries[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
			t.Errorf("entries[0].Timestamp = %v, want %v", entries[0].Timestamp, base.Add(2*time.Minute))
		}
	})

	t.Run("trims to maximum entries keeping newest", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

		for i := 0; i < model.MaxHistoryEntries+10; i++ {
			entry := model.HistoryEntry{
				Timestamp: base.Add(time.Duration(i) * time.Second),
				URL:       fmt.Sprintf("http://site%d.example/", i),
				Verdict:   model.VerdictSuspicious,
				Score:     40,
			}
			if err := s.AppendHistory(ctx, entry); err != nil {
				t.Fatalf("AppendHistory error = %v", err)
			}
		}

		entries, err := s.History(ctx)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != model.MaxHistoryEntries {
			t.Fatalf("len(entries) = %d, want %d", len(entries), model.MaxHistoryEntries)
		}
		if entries[0].URL != fmt.Sprintf("http://site%d.example/", model.MaxHistoryEntries+9) {
			t.Errorf("entries[0].URL = %q, want newest append", entries[0].URL)
		}
		wantOldest := fmt.Sprintf("http://site%d.example/", 10)
		if entries[len(entries)-1].URL != wantOldest {
			t.Errorf("oldest retained = %q, want %q", entries[len(entries)-1].URL, wantOldest)
		}
	})

	t.Run("verdict round-trips through storage", func(t *testing.T) {
		t.Parallel()

		s := openTestStore(t)
		ctx := context.Background()

		entry := model.HistoryEntry{
			Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			URL:       "http://phish.example/login",
			Verdict:   model.VerdictPhishing,
			Score:     91,
		}
		if err := s.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory error = %v", err)
		}

		entries, err := s.History(ctx)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if entries[0].Verdict != model.VerdictPhishing || entries[0].Score != 91 {
			t.Errorf("entry = %+v, want phishing with score 91", entries[0])
		}
	})
}

// TestStats tests dashboard aggregation.
func TestStats(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)
	yesterday := now.Add(-24 * time.Hour)

	entries := []model.HistoryEntry{
		{Timestamp: yesterday, URL: "http://old.example/", Verdict: model.VerdictPhishing, Score: 85},
		{Timestamp: now.Add(-time.Hour), URL: "http://a.example/", Verdict: model.VerdictSafe, Score: 3},
		{Timestamp: now.Add(-time.Minute), URL: "http://b.example/", Verdict: model.VerdictPhishing, Score: 90},
	}
	for _, entry := range entries {
		if err := s.AppendHistory(ctx, entry); err != nil {
			t.Fatalf("AppendHistory error = %v", err)
		}
	}
	if _, err := s.IncrementThreatCount(ctx, now.Add(-time.Minute)); err != nil {
		t.Fatalf("IncrementThreatCount error = %v", err)
	}

	stats, err := s.Stats(ctx, now)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalScans != 3 {
		t.Errorf("TotalScans = %d, want 3", stats.TotalScans)
	}
	if stats.ScansToday != 2 {
		t.Errorf("ScansToday = %d, want 2", stats.ScansToday)
	}
	if stats.PhishingBlocked != 2 {
		t.Errorf("PhishingBlocked = %d, want 2", stats.PhishingBlocked)
	}
	if stats.ThreatsToday != 1 {
		t.Errorf("ThreatsToday = %d, want 1", stats.ThreatsToday)
	}
}
