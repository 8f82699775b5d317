package model

import "time"

// MaxHistoryEntries is the hard cap on retained history entries.
// Older entries are silently discarded; the history exists to feed the
// dashboard, not to be an audit log.
const MaxHistoryEntries = 50

// HistoryEntry records one completed scan. Entries are persisted
// newest-first and only the HistoryLog appends or trims them.
// Scans short-circuited by the debounce cache never produce an entry.
type HistoryEntry struct {
	// Timestamp is when the scan completed.
	Timestamp time.Time `json:"timestamp"`

	// URL is the normalized scanned URL.
	URL string `json:"url"`

	// Verdict is the normalized classification.
	Verdict Verdict `json:"verdict"`

	// Score is the combined phishing score in [0, 100].
	Score int `json:"score"`
}

// DashboardStats holds the derived counts shown on the dashboard.
// Nothing in the pipeline depends on these values.
type DashboardStats struct {
	// TotalScans is the number of retained history entries.
	TotalScans int `json:"total_scans"`

	// ScansToday counts retained entries whose local date is today.
	ScansToday int `json:"scans_today"`

	// PhishingBlocked counts retained entries with a phishing verdict.
	PhishingBlocked int `json:"phishing_blocked"`

	// ThreatsToday is the persisted daily threat counter value.
	ThreatsToday int `json:"threats_today"`
}

// Dashboard bundles everything the dashboard view needs.
type Dashboard struct {
	// GeneratedAt is when this snapshot was taken.
	GeneratedAt time.Time `json:"generated_at"`

	// Stats holds the derived counters.
	Stats DashboardStats `json:"stats"`

	// Entries is the retained scan history, newest first.
	Entries []HistoryEntry `json:"entries"`
}
