package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishsentry/internal/model"
)

// Store provides SQLite-based storage for scan history and the daily
// threat counter.
//
// Design decision: We use one database file for both tables rather than a
// file per concern. The counter and history are written on the same scan
// event, and a single file keeps backup and inspection trivial.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "phishsentry.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; scan volume is a page load at a
	// time, so a single connection is plenty.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Scan history keeps the most recent flagged and scanned pages.
	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		url TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON scan_history(timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_verdict ON scan_history(verdict);

	-- Threat counter is a singleton row. reset_day is the Unix time of the
	-- local midnight that opened the counting window.
	CREATE TABLE IF NOT EXISTS threat_counter (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		count INTEGER NOT NULL DEFAULT 0,
		reset_day INTEGER NOT NULL DEFAULT 0
	);

	-- Lifetime totals survive history trimming.
	CREATE TABLE IF NOT EXISTS scan_totals (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_scans INTEGER NOT NULL DEFAULT 0,
		phishing_blocked INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// localMidnight returns the start of now's calendar day in now's location.
func localMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// IncrementThreatCount bumps the daily threat counter and returns the new
// value. If now belongs to a later day than the stored counting window, the
// counter restarts at 1. The rollover is lazy: it happens on the first
// increment after midnight, never on a timer.
func (s *Store) IncrementThreatCount(ctx context.Context, now time.Time) (int, error) {
	day := localMidnight(now).Unix()

	query := `
	INSERT INTO threat_counter (id, count, reset_day)
	VALUES (1, 1, ?)
	ON CONFLICT(id) DO UPDATE SET
		count = CASE WHEN threat_counter.reset_day = excluded.reset_day
			THEN threat_counter.count + 1 ELSE 1 END,
		reset_day = excluded.reset_day
	`

	if _, err := s.db.ExecContext(ctx, query, day); err != nil {
		return 0, fmt.Errorf("failed to increment threat counter: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT count FROM threat_counter WHERE id = 1").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read threat counter: %w", err)
	}
	return count, nil
}

// ThreatCount returns today's threat count. A stored count from a previous
// day reads as 0; the row itself is left untouched so the next increment
// performs the actual rollover.
func (s *Store) ThreatCount(ctx context.Context, now time.Time) (int, error) {
	var count int
	var resetDay int64
	err := s.db.QueryRowContext(ctx, "SELECT count, reset_day FROM threat_counter WHERE id = 1").Scan(&count, &resetDay)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read threat counter: %w", err)
	}

	if resetDay != localMidnight(now).Unix() {
		return 0, nil
	}
	return count, nil
}

// AppendHistory records a scan result and trims the table back to the
// MaxHistoryEntries most recent rows.
func (s *Store) AppendHistory(ctx context.Context, entry model.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	insert := `
	INSERT INTO scan_history (timestamp, url, verdict, score)
	VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insert,
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.URL,
		entry.Verdict.String(),
		entry.Score,
	); err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	// Trim oldest-first. id breaks ties so two entries within one second
	// still trim deterministically.
	trim := `
	DELETE FROM scan_history
	WHERE id NOT IN (
		SELECT id FROM scan_history
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	)
	`
	if _, err := tx.ExecContext(ctx, trim, model.MaxHistoryEntries); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	total := `
	INSERT INTO scan_totals (id, total_scans, phishing_blocked)
	VALUES (1, 1, ?)
	ON CONFLICT(id) DO UPDATE SET
		total_scans = scan_totals.total_scans + 1,
		phishing_blocked = scan_totals.phishing_blocked + excluded.phishing_blocked
	`
	blocked := 0
	if entry.Verdict == model.VerdictPhishing {
		blocked = 1
	}
	if _, err := tx.ExecContext(ctx, total, blocked); err != nil {
		return fmt.Errorf("failed to update scan totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history entry: %w", err)
	}
	return nil
}

// History returns recorded scans, newest first, at most MaxHistoryEntries.
func (s *Store) History(ctx context.Context) ([]model.HistoryEntry, error) {
	query := `
	SELECT timestamp, url, verdict, score
	FROM scan_history
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, model.MaxHistoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var entry model.HistoryEntry
		var timestamp, verdict string

		if err := rows.Scan(&timestamp, &entry.URL, &verdict, &entry.Score); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry.Timestamp = parseTimestamp(timestamp)
		entry.Verdict = model.ParseVerdict(verdict)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats aggregates lifetime and same-day numbers for the dashboard.
func (s *Store) Stats(ctx context.Context, now time.Time) (model.DashboardStats, error) {
	var stats model.DashboardStats

	err := s.db.QueryRowContext(ctx, "SELECT total_scans, phishing_blocked FROM scan_totals WHERE id = 1").
		Scan(&stats.TotalScans, &stats.PhishingBlocked)
	if err != nil && err != sql.ErrNoRows {
		return model.DashboardStats{}, fmt.Errorf("failed to read scan totals: %w", err)
	}

	// History timestamps are RFC3339 UTC strings, so a string comparison
	// against today's local midnight in UTC selects today's rows.
	since := localMidnight(now).UTC().Format(time.RFC3339)
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_history WHERE timestamp >= ?", since).
		Scan(&stats.ScansToday)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("failed to count today's scans: %w", err)
	}

	threats, err := s.ThreatCount(ctx, now)
	if err != nil {
		return model.DashboardStats{}, err
	}
	stats.ThreatsToday = threats

	return stats, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,              // how AppendHistory writes
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
