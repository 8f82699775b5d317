// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard slog
// package.
//
// Scanned page URLs routinely carry credentials: password-reset tokens,
// session identifiers, email addresses in query strings, and occasionally
// userinfo in the authority. Those URLs flow through almost every log line
// the sentinel emits, so sanitization happens in the handler rather than at
// each call site.
//
// # Security Features
//
// The SecureHandler automatically sanitizes log output:
//   - Attributes whose keys name credentials (password, token, cookie, ...)
//   - Secret-shaped values detected by pattern matching (JWTs, bearer and
//     basic auth values, API keys)
//   - URL values: userinfo is stripped and sensitive query parameters are
//     masked while the rest of the URL stays readable
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("scan completed",
//	    "url", "http://example.com/reset?token=abc123", // token is masked
//	    "verdict", "phishing",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
