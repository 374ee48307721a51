package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(method, origin string, preflight bool) *http.Request {
	req := httptest.NewRequest(method, "/api/trustees", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	return req
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	reached := false
	handler := NewCORS([]string{" https://app.test/ "})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, corsRequest(http.MethodOptions, "https://app.test", true))
	if rec.Code != http.StatusNoContent || reached {
		t.Fatalf("expected preflight to stop at 204, got %d (reached=%v)", rec.Code, reached)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.test" {
		t.Fatalf("missing allow-origin header")
	}
	if rec.Header().Get("Access-Control-Allow-Headers") != "Authorization,Content-Type,"+ActingForHeader {
		t.Fatalf("unexpected allow-headers %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, corsRequest(http.MethodGet, "https://app.test", false))
	if !reached || rec.Header().Get("Access-Control-Allow-Origin") != "https://app.test" {
		t.Fatalf("expected simple request to pass with CORS headers")
	}
}

func TestCORSRefusesUnknownOriginPreflight(t *testing.T) {
	reached := false
	handler := NewCORS([]string{"https://app.test"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, corsRequest(http.MethodOptions, "https://evil.test", true))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, corsRequest(http.MethodGet, "https://evil.test", false))
	if !reached || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected request to pass without CORS headers")
	}
}

func TestCORSWildcard(t *testing.T) {
	handler := NewCORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, corsRequest(http.MethodOptions, "https://any.test", true))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://any.test" {
		t.Fatalf("expected wildcard to allow any origin, got %d", rec.Code)
	}
}
