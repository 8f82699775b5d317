// Package evidence collects the lightweight evidence submitted with a scan:
// extracted page text and, when the caller can provide one, a screenshot of
// the visible tab. Collection is strictly best-effort; every failure path
// degrades to empty values so the scan pipeline can proceed with partial
// evidence.
package evidence
