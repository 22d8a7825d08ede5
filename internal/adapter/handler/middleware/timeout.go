package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds request processing with http.TimeoutHandler, answering 503
// once timeout passes. Probe endpoints are exempt.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, "Gateway Timeout")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
