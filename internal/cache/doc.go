// Package cache implements the scan debounce cache: a TTL-based,
// reserve-or-reject store keyed by normalized URL that suppresses duplicate
// scans triggered in rapid succession for the same page.
package cache
