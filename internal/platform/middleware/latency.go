package middleware

import (
	"net/http"
	"time"

	"tangible/internal/platform/metrics"
)

// LatencyMiddleware records request latency into Prometheus. A nil
// metrics collector disables observation, which keeps handler tests
// free of registry setup.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			next.ServeHTTP(w, r)
			m.ObserveRequestLatency(r.Method, r.URL.Path, time.Since(start))
		})
	}
}
