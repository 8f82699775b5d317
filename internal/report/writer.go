package report

import (
	"io"

	"github.com/nao1215/phishsentry/internal/model"
)

// Writer defines the interface for dashboard output.
// Implementations write the dashboard in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the dashboard to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(dashboard *model.Dashboard) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write dashboards, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the dashboard to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(dashboard *model.Dashboard) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(dashboard)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for dashboard writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// verdictCounts tallies history entries per verdict.
func verdictCounts(entries []model.HistoryEntry) map[model.Verdict]int {
	counts := make(map[model.Verdict]int)
	for _, entry := range entries {
		counts[entry.Verdict]++
	}
	return counts
}
