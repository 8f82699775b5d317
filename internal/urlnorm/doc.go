// Package urlnorm normalizes navigation URLs into scan cache keys.
// Two URLs that differ only by fragment normalize identically; everything
// else is preserved byte-for-byte.
package urlnorm
