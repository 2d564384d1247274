package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	handler := CORS("https://a.example.com, https://b.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://b.example.com")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://b.example.com" {
		t.Fatalf("expected b.example.com to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}

func TestCORSDefaultsToAnyOrigin(t *testing.T) {
	handler := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestOriginAllowed(t *testing.T) {
	origins := ParseOrigins(" https://a.example.com ,https://b.example.com")
	if !OriginAllowed(origins, "https://A.example.com") {
		t.Fatal("expected a.example.com to be allowed")
	}
	if OriginAllowed(origins, "https://evil.example.com") {
		t.Fatal("expected evil.example.com to be rejected")
	}
	if !OriginAllowed(ParseOrigins(""), "https://anything.example.com") {
		t.Fatal("expected empty list to allow any origin")
	}
}
