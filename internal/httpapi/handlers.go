package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/nao1215/phishsentry/internal/evidence"
	"github.com/nao1215/phishsentry/internal/model"
	"github.com/nao1215/phishsentry/internal/pipeline"
)

// scanRequest is the wire format of POST /v1/scan.
type scanRequest struct {
	// URL is the page to scan. Required.
	URL string `json:"url"`

	// TabID identifies the requesting browser tab, if any.
	TabID int `json:"tab_id,omitempty"`

	// Trigger is "auto" (default) or "user". User-triggered scans bypass
	// the debounce window and surface classifier failures.
	Trigger string `json:"trigger,omitempty"`

	// Text is page text the extension captured from the live tab.
	Text string `json:"text,omitempty"`

	// Screenshot is a base64-encoded PNG of the visible tab.
	Screenshot string `json:"screenshot,omitempty"`
}

// reportRequest is the wire format of POST /v1/report.
type reportRequest struct {
	URL      string `json:"url"`
	Reason   string `json:"reason,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// errorResponse is the wire format of error replies.
type errorResponse struct {
	Error string `json:"error"`
}

// historyResponse is the wire format of GET /v1/history.
type historyResponse struct {
	Entries []model.HistoryEntry `json:"entries"`
}

// healthResponse is the wire format of GET /healthz.
type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Classifier string `json:"classifier"`
}

// handleScan runs one scan and returns the outcome.
//
// Auto-triggered scans always answer 200, even when aborted: the extension
// treats any non-completed status as "do nothing". User-triggered scans
// answer 502 when the classifier is unreachable so the popup can tell the
// user why no verdict appeared.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.URL == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	trigger := pipeline.Trigger{
		TabID: req.TabID,
		URL:   req.URL,
	}
	if req.Trigger == "user" {
		trigger.Kind = pipeline.TriggerUser
	}
	if req.Text != "" || req.Screenshot != "" {
		trigger.Evidence = &evidence.Evidence{Text: req.Text, Screenshot: req.Screenshot}
	}

	outcome, err := s.scanner.Scan(r.Context(), trigger)
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "classifier unavailable"})
		return
	}

	s.writeJSON(w, http.StatusOK, outcome)
}

// handleHistory returns recorded scans, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.History(r.Context())
	if err != nil {
		s.logger.Error("failed to read history", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read history"})
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}

	s.writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// handleStats returns dashboard statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), s.now())
	if err != nil {
		s.logger.Error("failed to read stats", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read stats"})
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// handleReport forwards a user phishing report to the classifier service.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.URL == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	report := model.NewReportRequest(req.URL, req.Reason, req.Comments, s.now())
	if err := s.reporter.Report(r.Context(), report); err != nil {
		s.logger.Warn("failed to forward report", "url", req.URL, "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to forward report"})
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleHealth reports sentinel and classifier health. The sentinel itself
// answering is already the liveness signal, so the status is always 200;
// the classifier field says whether verdicts are currently possible.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Version:    s.version,
		Classifier: "ok",
	}
	if err := s.reporter.Health(r.Context()); err != nil {
		resp.Classifier = "unreachable"
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
