package model

import (
	"encoding/json"
	"time"
)

// Sensitivity levels accepted by the classifier's /analyze endpoint.
// The sentinel sends the value verbatim; interpretation is the classifier's.
const (
	SensitivityRelaxed  = "relaxed"
	SensitivityBalanced = "balanced"
	SensitivityStrict   = "strict"
)

// ScanRequest is the payload sent to the classifier's /analyze endpoint.
// It is constructed fresh for each scan and immutable after send.
type ScanRequest struct {
	// URL is the normalized page URL (fragment already stripped).
	URL string `json:"url"`

	// Text is the extracted, whitespace-collapsed page text.
	// Empty when extraction failed; the classifier scores on URL alone.
	Text string `json:"text"`

	// Screenshot is a base64-encoded PNG of the visible tab, or empty
	// when capture failed or was unavailable.
	Screenshot string `json:"screenshot,omitempty"`

	// RequestID uniquely identifies this scan attempt.
	// Used for log correlation only; correctness never depends on it.
	RequestID string `json:"request_id"`

	// Sensitivity selects a classifier scoring profile (e.g. "balanced").
	Sensitivity string `json:"sensitivity,omitempty"`
}

// ScanVerdict is the normalized classifier response for one scan.
// It is owned by the orchestrator for the duration of a single scan;
// only derived fields (verdict, score) are persisted.
type ScanVerdict struct {
	// Score is the combined phishing score in [0, 100].
	Score int `json:"score"`

	// Verdict is the normalized classification.
	Verdict Verdict `json:"verdict"`

	// URLScore is the URL-heuristic component of the score.
	URLScore int `json:"url_score"`

	// ContentScore is the page-text component of the score.
	ContentScore int `json:"content_score"`

	// VisualScore is the screenshot-similarity component of the score.
	VisualScore int `json:"visual_score"`

	// Reasons lists human-readable indicators that contributed to the score.
	Reasons []string `json:"reasons,omitempty"`
}

// FlexStrings decodes a JSON value that may be a single string or an array
// of strings into a flat string slice.
//
// The classifier has emitted both shapes for the "reasons" and "verdict"
// fields across iterations. Normalizing here keeps the rest of the pipeline
// free of type branching (see the router, which only ever sees a Verdict).
type FlexStrings []string

// UnmarshalJSON accepts null, a string, or an array; non-string array
// elements are dropped rather than failing the decode.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = nil
			return nil
		}
		*f = FlexStrings{single}
		return nil
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		// null or an unexpected shape; treat as absent
		*f = nil
		return nil
	}

	out := make(FlexStrings, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// wireVerdict mirrors the raw /analyze response before normalization.
// Score is a float pointer because some classifier builds emit JSON floats.
type wireVerdict struct {
	Score        *float64    `json:"score"`
	Verdict      FlexStrings `json:"verdict"`
	URLScore     *float64    `json:"url_score"`
	ContentScore *float64    `json:"content_score"`
	VisualScore  *float64    `json:"visual_score"`
	Reasons      FlexStrings `json:"reasons"`
}

// DecodeScanVerdict normalizes a raw /analyze response body.
// It never fails: a body that cannot be decoded, or one missing the score
// or verdict fields, degrades to a safe zero-score verdict rather than
// aborting the pipeline. Scores are clamped to [0, 100].
func DecodeScanVerdict(body []byte) *ScanVerdict {
	var w wireVerdict
	if err := json.Unmarshal(body, &w); err != nil {
		return &ScanVerdict{Verdict: VerdictSafe}
	}

	v := &ScanVerdict{
		Score:        clampScore(w.Score),
		URLScore:     clampScore(w.URLScore),
		ContentScore: clampScore(w.ContentScore),
		VisualScore:  clampScore(w.VisualScore),
		Reasons:      []string(w.Reasons),
	}
	if len(w.Verdict) > 0 {
		v.Verdict = ParseVerdict(w.Verdict[0])
	}
	return v
}

// clampScore converts an optional wire score to an int in [0, 100].
func clampScore(f *float64) int {
	if f == nil {
		return 0
	}
	s := int(*f)
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ReportRequest is the payload for the classifier's /report endpoint,
// used when a user flags a page the classifier missed (or cleared).
type ReportRequest struct {
	// URL is the reported page URL.
	URL string `json:"url"`

	// Reason is a short category, e.g. "phishing" or "false_positive".
	Reason string `json:"reason"`

	// Comments holds free-form user notes.
	Comments string `json:"comments,omitempty"`

	// Timestamp is the report time in ISO-8601 form.
	Timestamp string `json:"timestamp"`
}

// NewReportRequest builds a ReportRequest with the timestamp set to now.
func NewReportRequest(url, reason, comments string, now time.Time) ReportRequest {
	return ReportRequest{
		URL:       url,
		Reason:    reason,
		Comments:  comments,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
