package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusCapturingWriter records the status code a handler wrote so
// accessLog can include it after the fact; http.ResponseWriter has no
// getter of its own.
type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying ResponseWriter's http.Flusher so the
// engine's per-chunk flush (fileserver.FileResponder.stream) still reaches
// the network instead of silently buffering for the whole response.
func (w *statusCapturingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// accessLog emits one structured log line per request, in the teacher
// project's style of logging through zap rather than the stdlib logger.
// Each line carries the request ID minted by withRequestID; the engine's
// own error and panic log lines do not include that ID.
func accessLog(logger *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(sw, r)

		if c := logger.Check(zap.InfoLevel, "request"); c != nil {
			c.Write(
				zap.String("request_id", requestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		}
	})
}
