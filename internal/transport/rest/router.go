package rest

import "net/http"

// Routes bundles the handlers mounted by NewRouter. A nil Metrics omits
// the /metrics endpoint.
type Routes struct {
	Lookup  *LookupHandler
	Health  *HealthHandler
	Metrics http.Handler
}

// NewRouter mounts all endpoints on a fresh ServeMux.
func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lookup", rt.Lookup.Lookup)
	mux.HandleFunc("GET /live", rt.Health.Live)
	mux.HandleFunc("GET /ready", rt.Health.Ready)
	mux.HandleFunc("GET /health", rt.Health.Health)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}
	return mux
}
