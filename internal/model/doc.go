// Package model defines the core data types for phishsentry: scan requests
// and verdicts exchanged with the remote classifier, the per-scan outcome
// and tab action produced by the router, and the persisted history entries
// that back the dashboard.
package model
