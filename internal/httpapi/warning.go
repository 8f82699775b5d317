package httpapi

import (
	"html/template"
	"net/http"

	"github.com/nao1215/phishsentry/internal/model"
)

// warningTemplate renders the interstitial shown in place of a flagged
// page. It is deliberately self-contained: no external assets, because the
// page must render even when the user's network is the thing under attack.
var warningTemplate = template.Must(template.New("warning").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Warning: Suspicious Page Blocked</title>
<style>
  body { font-family: system-ui, sans-serif; background: #1a1a2e; color: #eee; margin: 0; }
  main { max-width: 40rem; margin: 10vh auto; padding: 2rem; background: #16213e; border-radius: 8px; }
  h1 { color: {{.Color}}; }
  .score { font-size: 2.5rem; font-weight: bold; color: {{.Color}}; }
  .url { word-break: break-all; background: #0f3460; padding: 0.5rem; border-radius: 4px; }
  a.proceed { color: #888; font-size: 0.9rem; }
</style>
</head>
<body>
<main>
  <h1>&#9888; This page looks like {{.Label}}</h1>
  <p>PhishSentry blocked the page before it loaded.</p>
  <p class="score">{{.Score}}/100</p>
  <p>Blocked page:</p>
  <p class="url">{{.Ref}}</p>
  <p><a class="proceed" href="{{.Ref}}">I understand the risk, continue anyway</a></p>
</main>
</body>
</html>
`))

// warningData feeds the interstitial template.
type warningData struct {
	Score string
	Label string
	Color string
	Ref   string
}

// handleWarning serves the interstitial page that flagged tabs are
// redirected to. Score, verdict, and the original URL travel in the query
// string placed there by the verdict router.
func (s *Server) handleWarning(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := warningData{
		Score: q.Get("score"),
		Label: "a phishing page",
		Color: "#F44336",
		Ref:   q.Get("ref"),
	}
	if data.Score == "" {
		data.Score = "?"
	}
	if model.ParseVerdict(q.Get("verdict")) == model.VerdictSuspicious {
		data.Label = "a suspicious page"
		data.Color = "#FF9800"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := warningTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render warning page", "error", err)
	}
}
