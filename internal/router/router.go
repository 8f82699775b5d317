package router

import (
	"net/url"
	"strconv"

	"github.com/nao1215/phishsentry/internal/model"
)

// Badge presentation per verdict. Safe pages show no badge at all; silence
// is the signal that nothing is wrong.
const (
	// BadgePhishingText marks a confirmed phishing page.
	BadgePhishingText = "!"
	// BadgePhishingColor is the phishing badge background.
	BadgePhishingColor = "#F44336"

	// BadgeSuspiciousText marks a suspicious page.
	BadgeSuspiciousText = "?"
	// BadgeSuspiciousColor is the suspicious badge background.
	BadgeSuspiciousColor = "#FF9800"

	// CounterBadgeColor is the background of the daily threat counter badge.
	CounterBadgeColor = "#ef4444"
)

// RedirectScoreThreshold is the score at or above which a page is forced to
// the warning interstitial regardless of verdict label. A phishing verdict
// redirects at any score; this threshold catches high-scoring pages the
// classifier labeled only suspicious.
const RedirectScoreThreshold = 75

// DefaultWarningPath is the interstitial page served by the sentinel.
const DefaultWarningPath = "/warning"

// Router decides tab actions from verdicts.
type Router struct {
	// warningURL is the base URL of the warning interstitial.
	warningURL string
}

// Option configures a Router.
type Option func(*Router)

// WithWarningURL overrides the interstitial base URL.
func WithWarningURL(u string) Option {
	return func(r *Router) {
		if u != "" {
			r.warningURL = u
		}
	}
}

// New creates a Router.
func New(opts ...Option) *Router {
	r := &Router{
		warningURL: DefaultWarningPath,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Route maps a verdict for pageURL to the action the tab should take.
// A nil verdict yields the zero action: no badge, no redirect.
func (r *Router) Route(pageURL string, verdict *model.ScanVerdict) model.TabAction {
	if verdict == nil {
		return model.TabAction{}
	}

	var action model.TabAction
	switch verdict.Verdict {
	case model.VerdictPhishing:
		action.ShowBadge = true
		action.BadgeText = BadgePhishingText
		action.BadgeColor = BadgePhishingColor
	case model.VerdictSuspicious:
		action.ShowBadge = true
		action.BadgeText = BadgeSuspiciousText
		action.BadgeColor = BadgeSuspiciousColor
	case model.VerdictSafe:
		// no badge
	}

	if verdict.Score >= RedirectScoreThreshold || verdict.Verdict == model.VerdictPhishing {
		action.Redirect = true
		action.RedirectURL = r.WarningURL(pageURL, verdict)
	}

	return action
}

// WarningURL builds the interstitial URL for a flagged page. The original
// page travels in "ref" so the interstitial can offer a "proceed anyway"
// escape hatch, with the score and verdict alongside for display.
func (r *Router) WarningURL(pageURL string, verdict *model.ScanVerdict) string {
	values := url.Values{}
	values.Set("score", strconv.Itoa(verdict.Score))
	values.Set("verdict", verdict.Verdict.String())
	values.Set("ref", pageURL)
	return r.warningURL + "?" + values.Encode()
}
