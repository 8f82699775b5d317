// Package pipeline orchestrates a full page scan: URL normalization and
// debounce, evidence collection, classification, verdict routing, and
// persistence of the daily threat counter and scan history.
//
// The orchestrator fails open. Missing evidence degrades to a partial scan,
// an unreachable classifier aborts the single attempt, and no failure ever
// blocks the page being scanned.
package pipeline
