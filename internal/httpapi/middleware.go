package httpapi

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingResponseWriter captures the status code and bytes written so the
// logging middleware can report them after the handler runs.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	bytesSent  int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesSent += n
	return n, err
}

// loggingMiddleware logs one line per request. URL sanitization happens in
// the logger's handler, so the raw path can pass through here.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(lrw, r)

			logger.Debug("request processed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", lrw.statusCode,
				"bytes", lrw.bytesSent,
				"duration", time.Since(start),
			)
		})
	}
}
