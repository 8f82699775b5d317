package model

import (
	"encoding/json"
	"strings"
)

// Verdict represents the classifier's judgement of a scanned page.
//
// Design decision: We use iota-based constants rather than carrying the
// classifier's raw string through the pipeline. The wire value is normalized
// exactly once (ParseVerdict) so the router and stores never branch on
// spelling or case variants.
type Verdict int

const (
	// VerdictSafe indicates the page showed no phishing indicators.
	// This is also the fail-open default for unknown or missing verdicts.
	VerdictSafe Verdict = iota

	// VerdictSuspicious indicates the page has some phishing indicators
	// but not enough to block. The user sees a warning badge only.
	VerdictSuspicious

	// VerdictPhishing indicates the page was classified as a phishing
	// attempt. It increments the threat counter and may trigger a redirect
	// to the interstitial warning page.
	VerdictPhishing
)

// ParseVerdict normalizes a classifier verdict string.
// Matching is case-insensitive. "danger" is accepted as a synonym for
// phishing because older classifier builds emit it. Unknown or empty values
// default to VerdictSafe so a drifting classifier vocabulary can never
// block a page on its own.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phishing", "danger":
		return VerdictPhishing
	case "suspicious":
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

// String returns the canonical lower-case verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictPhishing:
		return "phishing"
	case VerdictSuspicious:
		return "suspicious"
	default:
		return "safe"
	}
}

// MarshalJSON encodes the verdict as its canonical string form.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a verdict from its string form, applying the same
// normalization as ParseVerdict.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = ParseVerdict(s)
	return nil
}
