package middleware

import (
	"net/http"
	"strings"
	"time"
)

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// unmatchedRoute labels requests no mux pattern claimed, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Metrics reports method, route pattern (without its method prefix), status
// and latency to obs. It must sit between the last request-copying
// middleware and the mux so the matched pattern is visible after the call
// returns.
func Metrics(obs HTTPObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapStatus(w)

			next.ServeHTTP(sw, r)

			route := r.Pattern
			if i := strings.IndexByte(route, ' '); i >= 0 {
				route = route[i+1:]
			}
			if route == "" {
				route = unmatchedRoute
			}
			obs.ObserveHTTP(r.Method, route, sw.status, time.Since(start))
		})
	}
}
