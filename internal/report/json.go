package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/phishsentry/internal/model"
)

// JSONWriter outputs dashboards in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       false,
		indentPrefix: "",
		indentString: "",
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the dashboard in JSON format.
func (w *JSONWriter) Write(dashboard *model.Dashboard) (int, error) {
	return w.writeJSON(dashboard)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// VersionedDashboard wraps the dashboard with generator metadata.
// This is used when the output must carry the sentinel version.
//
// Design decision: We wrap the dashboard rather than modifying
// model.Dashboard because this allows us to add output-specific fields
// without polluting the core data structure.
type VersionedDashboard struct {
	// Version is the PhishSentry version that generated this dashboard.
	Version string `json:"version"`

	// Dashboard is the full dashboard data.
	Dashboard *model.Dashboard `json:"dashboard"`
}

// FullJSONWriter outputs dashboards with the metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the PhishSentry version string.
	version string
}

// NewFullJSONWriter creates a writer for dashboards with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the dashboard wrapped with metadata.
func (w *FullJSONWriter) Write(dashboard *model.Dashboard) (int, error) {
	wrapped := &VersionedDashboard{
		Version:   w.version,
		Dashboard: dashboard,
	}
	return w.writeJSON(wrapped)
}
