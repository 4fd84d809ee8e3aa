package middleware

import (
	"net/http"
	"strings"
)

var (
	corsMethods = strings.Join([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, ", ")
	corsHeaders = strings.Join([]string{"Accept", "Authorization", "Content-Type"}, ", ")
)

// CORS allows browser clients from the configured origins. With no origins
// configured the middleware passes requests through untouched, the right
// default for an API consumed by scrobbling clients rather than browsers.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Set("Access-Control-Max-Age", "86400")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
