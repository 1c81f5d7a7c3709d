package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDIsStampedAndReusedFromContext(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("RequestIDFromContext returned empty string inside handler")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("X-Request-ID header = %q, want %q", got, seen)
	}
}

func TestRequestIDFromContextEmptyWhenUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	if got := RequestIDFromContext(req.Context()); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
