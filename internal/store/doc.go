// Package store provides SQLite-based persistence for scan history and the
// daily threat counter. History is bounded to the 50 most recent entries;
// the counter follows local midnight with a lazy rollover, so no timer ever
// fires at midnight.
package store
