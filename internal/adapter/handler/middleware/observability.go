package middleware

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/observability"
)

// Observability records HTTP metrics for requests. Requests are labelled by
// the matched mux pattern so unknown paths share one series.
func Observability(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.HTTPRequestsActive.Add(r.Context(), 1)
			defer metrics.HTTPRequestsActive.Add(r.Context(), -1)

			rw := wrap(w)
			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(r.Context(), r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
