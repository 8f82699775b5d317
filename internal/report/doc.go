// Package report renders the scan dashboard in multiple output formats.
//
// Three writers are provided:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: machine-readable output for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for documentation and sharing
//
// All writers implement the Writer interface and render the same
// model.Dashboard data.
package report
