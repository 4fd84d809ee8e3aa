package middleware

import (
	"net/http"
	"time"

	"github.com/scrob-fm/scrob/internal/metrics"
)

// statusWriter captures the status code a handler writes so the logging and
// metrics layers can report it. Handlers that never call WriteHeader are
// reported as 200, matching what net/http sends.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Prometheus observes duration and count for every request except the
// scrape endpoint itself, which would otherwise dominate the series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		if r.URL.Path != "/metrics" {
			metrics.RecordRequest(r.Method, r.URL.Path, sw.status, time.Since(start).Seconds())
		}
	})
}
