package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/phishsentry/internal/model"
)

// SimpleWriter outputs human-readable text dashboards.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool

	// titler renders verdict labels for display.
	titler cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
		titler:     cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the dashboard in human-readable format.
func (w *SimpleWriter) Write(dashboard *model.Dashboard) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, dashboard)
	w.writeSummary(&sb, dashboard)
	w.writeHistory(&sb, dashboard)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the dashboard header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, dashboard *model.Dashboard) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       PHISHSENTRY DASHBOARD\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated: %s\n", dashboard.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeSummary writes the scan statistics section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, dashboard *model.Dashboard) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCAN STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total scans:      %d\n", dashboard.Stats.TotalScans))
	sb.WriteString(fmt.Sprintf("  Scans today:      %d\n", dashboard.Stats.ScansToday))
	sb.WriteString(fmt.Sprintf("  Phishing blocked: %d\n", dashboard.Stats.PhishingBlocked))
	sb.WriteString(fmt.Sprintf("  Threats today:    %d\n", dashboard.Stats.ThreatsToday))
	sb.WriteString("\n")
}

// writeHistory writes the recent scans section, newest first.
func (w *SimpleWriter) writeHistory(sb *strings.Builder, dashboard *model.Dashboard) {
	if len(dashboard.Entries) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECENT SCANS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(dashboard.Entries) == 0 {
		sb.WriteString("  No scans recorded\n\n")
		return
	}

	for _, entry := range dashboard.Entries {
		indicator := w.getVerdictIndicator(entry.Verdict)
		sb.WriteString(fmt.Sprintf("  [%s] %-10s %3d  %s\n",
			indicator,
			w.titler.String(entry.Verdict.String()),
			entry.Score,
			entry.URL,
		))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Scanned: %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST")))
		}
	}
	sb.WriteString("\n")
}

// getVerdictIndicator returns a visual indicator for the verdict.
func (w *SimpleWriter) getVerdictIndicator(verdict model.Verdict) string {
	switch verdict {
	case model.VerdictPhishing:
		return "!!"
	case model.VerdictSuspicious:
		return "? "
	case model.VerdictSafe:
		return "ok"
	default:
		return "  "
	}
}

// writeFooter writes the dashboard footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by PhishSentry\n")
	sb.WriteString("https://github.com/nao1215/phishsentry\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
