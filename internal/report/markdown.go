package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/phishsentry/internal/model"
)

// MarkdownWriter outputs dashboards in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titler renders verdict labels for display.
	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// Write outputs the dashboard in Markdown format.
func (w *MarkdownWriter) Write(dashboard *model.Dashboard) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, dashboard)
	w.writeSummary(md, dashboard)
	w.writeHistory(md, dashboard)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the dashboard header.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, dashboard *model.Dashboard) {
	md.H1("PhishSentry Dashboard")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", dashboard.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Scans", strconv.Itoa(dashboard.Stats.TotalScans)},
			{"Scans Today", strconv.Itoa(dashboard.Stats.ScansToday)},
			{"Phishing Blocked", strconv.Itoa(dashboard.Stats.PhishingBlocked)},
			{"Threats Today", strconv.Itoa(dashboard.Stats.ThreatsToday)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the verdict distribution and an alert reflecting the
// current threat level.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, dashboard *model.Dashboard) {
	md.H2("Verdict Summary")
	md.PlainText("")

	counts := verdictCounts(dashboard.Entries)

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🔴 Phishing", strconv.Itoa(counts[model.VerdictPhishing])},
			{"🟠 Suspicious", strconv.Itoa(counts[model.VerdictSuspicious])},
			{"🟢 Safe", strconv.Itoa(counts[model.VerdictSafe])},
			{"**Total**", "**" + strconv.Itoa(len(dashboard.Entries)) + "**"},
		},
	})
	md.PlainText("")

	if len(dashboard.Entries) > 0 {
		w.writePieChart(md, counts)
	}

	w.writeAlert(md, counts)
}

// writePieChart writes a mermaid pie chart for verdict distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Verdict]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)

	for _, verdict := range []model.Verdict{model.VerdictPhishing, model.VerdictSuspicious, model.VerdictSafe} {
		if counts[verdict] > 0 {
			chart.LabelAndIntValue(w.titler.String(verdict.String()), uint64(counts[verdict]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on verdict counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, counts map[model.Verdict]int) {
	switch {
	case counts[model.VerdictPhishing] > 0:
		md.Cautionf(
			"Phishing pages detected! %d recent scan(s) were blocked.",
			counts[model.VerdictPhishing],
		)
	case counts[model.VerdictSuspicious] > 0:
		md.Warningf(
			"Suspicious pages detected. %d recent scan(s) were flagged for review.",
			counts[model.VerdictSuspicious],
		)
	case counts[model.VerdictSafe] > 0:
		md.Tip("All recent scans were safe.")
	default:
		md.Note("No scans recorded yet.")
	}
	md.PlainText("")
}

// writeHistory writes the recent scans table, newest first.
func (w *MarkdownWriter) writeHistory(md *markdown.Markdown, dashboard *model.Dashboard) {
	md.H2("Recent Scans")
	md.PlainText("")

	if len(dashboard.Entries) == 0 {
		md.PlainText("No scans recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(dashboard.Entries))
	for i, entry := range dashboard.Entries {
		rows[i] = []string{
			entry.Timestamp.Format("2006-01-02 15:04"),
			w.titler.String(entry.Verdict.String()),
			strconv.Itoa(entry.Score),
			"`" + truncateString(entry.URL, 60) + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Scanned", "Verdict", "Score", "URL"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the dashboard footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [PhishSentry](https://github.com/nao1215/phishsentry)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
