package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limited(rpm, burst int) http.Handler {
	return RateLimit(rpm, burst)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, remote, xff string) int {
	req := httptest.NewRequest("GET", "/api/status", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_BurstThenBlocksThenRefills(t *testing.T) {
	h := limited(60, 2) // 1 token/s, burst 2

	for i := 0; i < 2; i++ {
		if code := hit(h, "10.0.0.1:4321", ""); code != 200 {
			t.Fatalf("request %d: code = %d, want 200", i+1, code)
		}
	}
	if code := hit(h, "10.0.0.1:4321", ""); code != 429 {
		t.Fatalf("exhausted bucket: code = %d, want 429", code)
	}

	time.Sleep(1100 * time.Millisecond)
	if code := hit(h, "10.0.0.1:4321", ""); code != 200 {
		t.Fatalf("after refill: code = %d, want 200", code)
	}
}

func TestRateLimit_ZeroRPMDisables(t *testing.T) {
	h := limited(0, 0)
	for i := 0; i < 20; i++ {
		if code := hit(h, "10.0.0.1:4321", ""); code != 200 {
			t.Fatalf("disabled limiter blocked request %d: code = %d", i+1, code)
		}
	}
}

func TestRateLimit_BucketsAreKeyedPerClient(t *testing.T) {
	h := limited(60, 1)

	if code := hit(h, "10.0.0.1:4321", ""); code != 200 {
		t.Fatalf("first client: code = %d", code)
	}
	if code := hit(h, "10.0.0.1:4321", ""); code != 429 {
		t.Fatalf("first client second hit: code = %d, want 429", code)
	}
	// a different client has its own bucket
	if code := hit(h, "10.0.0.2:4321", ""); code != 200 {
		t.Fatalf("second client: code = %d, want 200", code)
	}
}

func TestRateLimit_KeysOnForwardedForBehindProxy(t *testing.T) {
	h := limited(60, 1)

	// both requests arrive from the proxy's address but carry
	// different originating clients
	if code := hit(h, "127.0.0.1:9000", "203.0.113.7, 127.0.0.1"); code != 200 {
		t.Fatalf("forwarded client a: code = %d", code)
	}
	if code := hit(h, "127.0.0.1:9000", "203.0.113.8, 127.0.0.1"); code != 200 {
		t.Fatalf("forwarded client b: code = %d, want own bucket", code)
	}
	if code := hit(h, "127.0.0.1:9000", "203.0.113.7, 127.0.0.1"); code != 429 {
		t.Fatalf("forwarded client a repeat: code = %d, want 429", code)
	}
}
