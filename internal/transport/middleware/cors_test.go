package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heartmarshall/leocli/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_Preflight(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://example.com"}, MaxAge: 600}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for preflight")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/lookup", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	CORS(cfg)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	wantHeaders := map[string]string{
		"Access-Control-Allow-Origin":  "https://example.com",
		"Access-Control-Allow-Methods": corsMethods,
		"Access-Control-Allow-Headers": corsHeaders,
		"Access-Control-Max-Age":       "600",
	}
	for k, want := range wantHeaders {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("expected %s %q, got %q", k, want, got)
		}
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://example.com", " https://other.com "}}

	req := httptest.NewRequest(http.MethodGet, "/api/lookup", nil)
	req.Header.Set("Origin", "https://other.com")
	rec := httptest.NewRecorder()

	CORS(cfg)(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://other.com" {
		t.Errorf("expected Access-Control-Allow-Origin %q, got %q", "https://other.com", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != RequestIDHeader {
		t.Errorf("expected request ID header to be exposed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Errorf("non-preflight response should not carry Allow-Methods, got %q", got)
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://example.com"}}

	req := httptest.NewRequest(http.MethodOptions, "/api/lookup", nil)
	req.Header.Set("Origin", "https://evil.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	CORS(cfg)(okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Access-Control-Allow-Origin, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("disallowed preflight should fall through to the handler, got %d", rec.Code)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"*"}}

	req := httptest.NewRequest(http.MethodGet, "/api/lookup", nil)
	req.Header.Set("Origin", "https://anything.example")
	rec := httptest.NewRecorder()

	CORS(cfg)(okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example" {
		t.Errorf("expected origin to be echoed, got %q", got)
	}
}

func TestCORS_NoOriginsConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/lookup", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()

	CORS(config.CORSConfig{})(okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected CORS to be disabled, got %q", got)
	}
}
