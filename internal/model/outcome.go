package model

import "encoding/json"

// ScanStatus describes how far a scan attempt progressed.
type ScanStatus int

const (
	// StatusCompleted means the classifier returned a verdict and all
	// verdict-driven side effects (badge, counter, history) were applied.
	StatusCompleted ScanStatus = iota

	// StatusDuplicate means the URL was already reserved in the debounce
	// cache; the trigger was dropped with no side effects.
	StatusDuplicate

	// StatusSkipped means the URL is not scannable (non-http scheme).
	StatusSkipped

	// StatusAborted means the classifier was unreachable or returned a
	// non-success status. The cache reservation stands; nothing else
	// changed.
	StatusAborted
)

// String returns the status name used on the wire and in logs.
func (s ScanStatus) String() string {
	switch s {
	case StatusDuplicate:
		return "duplicate"
	case StatusSkipped:
		return "skipped"
	case StatusAborted:
		return "aborted"
	default:
		return "completed"
	}
}

// MarshalJSON encodes the status as its string form.
func (s ScanStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// TabAction is the router's decision for a scanned tab. It is pure data:
// the caller (browser extension, CLI output) applies it. A vanished tab
// makes applying it a harmless no-op.
type TabAction struct {
	// ShowBadge indicates whether a per-tab badge should be set.
	// Safe verdicts suppress the per-tab badge entirely so the global
	// threat-count badge stays visible.
	ShowBadge bool `json:"show_badge"`

	// BadgeText is the per-tab badge text ("!" or "?").
	BadgeText string `json:"badge_text,omitempty"`

	// BadgeColor is the badge background color as a CSS hex value.
	BadgeColor string `json:"badge_color,omitempty"`

	// Redirect indicates the tab must be navigated to the interstitial.
	Redirect bool `json:"redirect"`

	// RedirectURL is the interstitial URL carrying the score, verdict,
	// and ref query parameters. Empty unless Redirect is true.
	RedirectURL string `json:"redirect_url,omitempty"`
}

// ScanOutcome is the result of one pass through the orchestrator.
type ScanOutcome struct {
	// Status reports how far the scan progressed.
	Status ScanStatus `json:"status"`

	// URL is the normalized URL the outcome refers to.
	URL string `json:"url"`

	// TabID identifies the originating tab, when the trigger carried one.
	TabID int `json:"tab_id,omitempty"`

	// RequestID is the classifier request ID, for log correlation.
	// Empty when the scan never reached the classifier.
	RequestID string `json:"request_id,omitempty"`

	// Verdict is the normalized classifier response.
	// Nil unless Status is StatusCompleted.
	Verdict *ScanVerdict `json:"verdict,omitempty"`

	// Action is the badge/redirect decision for the tab.
	// Nil unless Status is StatusCompleted.
	Action *TabAction `json:"action,omitempty"`

	// ThreatCount is today's blocked-threat total after this scan,
	// populated on completed scans so the caller can refresh the global
	// counter badge.
	ThreatCount int `json:"threat_count,omitempty"`
}
