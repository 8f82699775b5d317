// Package classifier implements the HTTP client for the remote phishing
// classifier. The sentinel never executes classification logic itself; this
// client only shapes /analyze requests, normalizes responses, and forwards
// user reports. A failed classification aborts the current scan attempt and
// nothing else.
package classifier
