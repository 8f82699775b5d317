// Package router maps classifier verdicts to tab actions: which badge to
// show, and whether to send the tab to the local warning interstitial.
// The mapping is pure and deterministic so the orchestrator and the HTTP
// API produce identical actions for identical verdicts.
package router
