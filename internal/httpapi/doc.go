// Package httpapi exposes the sentinel's local HTTP API. The browser
// extension and local tooling talk to it; it binds loopback and serves
// scan requests, history, stats, report forwarding, a health probe, and
// the warning interstitial that flagged tabs are redirected to.
package httpapi
