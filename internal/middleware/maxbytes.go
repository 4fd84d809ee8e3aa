package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies at 1 MiB, generous for a
// 50-scrobble batch but small enough to shrug off junk uploads.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBytes rejects oversized request bodies with 413 before a handler ever
// decodes them.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
