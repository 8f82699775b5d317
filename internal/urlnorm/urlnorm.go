package urlnorm

import "strings"

// Normalize strips the fragment ("#...") from a navigation URL and returns
// the result. Query strings, trailing slashes, and letter case are preserved
// as-is: single-page apps rewrite only the fragment on in-page navigation,
// so the fragment is the one volatile part that must not produce a new cache
// key. Collapsing anything more would merge genuinely distinct pages.
//
// Design decision: We deliberately avoid net/url here. Parsing and
// re-serializing can re-encode characters (spaces, non-ASCII, reserved
// punctuation), which would make the cache key differ from the URL the
// browser reported. A byte-level cut at the first '#' is the whole contract.
func Normalize(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// IsScannable reports whether the URL is eligible for scanning.
// Only http and https navigations are scanned; browser-internal schemes
// (chrome://, about:, file://) never reach the classifier.
func IsScannable(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}
