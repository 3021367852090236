package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestWebhook_PayloadShape(t *testing.T) {
	var got webhookPayload
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(200)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, zap.NewNop())
	err := wh.Notify(context.Background(), Alert{
		Name:   "api",
		URL:    "https://example.com",
		Detail: "connection refused",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if calls != 1 {
		t.Fatalf("webhook called %d times, want 1", calls)
	}
	if got.Name != "api" || got.URL != "https://example.com" {
		t.Fatalf("identity fields wrong: %+v", got)
	}
	if got.Status != 500 {
		t.Fatalf("status = %d, want 500", got.Status)
	}
	if got.Error.Status != "500" || got.Error.Detail != "connection refused" {
		t.Fatalf("error object wrong: %+v", got.Error)
	}
}

func TestWebhook_UnconfiguredSkipsDelivery(t *testing.T) {
	wh := NewWebhook("", zap.NewNop())
	if err := wh.Notify(context.Background(), Alert{Name: "api"}); err != nil {
		t.Fatalf("log-only mode returned error: %v", err)
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, zap.NewNop())
	if err := wh.Notify(context.Background(), Alert{Name: "api"}); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_FormatsAlert(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	err := s.Notify(context.Background(), Alert{Name: "api", URL: "https://example.com", Detail: "HTTP 503"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(got, "api is DOWN") || !strings.Contains(got, "HTTP 503") {
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_DisabledWhenNoWebhook(t *testing.T) {
	if s := NewSlack(""); s != nil {
		t.Fatalf("expected nil slack for empty webhook")
	}
}

func TestMulti_SkipsNilAndCollectsFirstError(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{nil, notifierFunc(func(context.Context, Alert) error { return boom }),
		notifierFunc(func(context.Context, Alert) error { return errors.New("later") })}
	if err := m.Notify(context.Background(), Alert{}); !errors.Is(err, boom) {
		t.Fatalf("Multi returned %v, want first error", err)
	}
}

type notifierFunc func(context.Context, Alert) error

func (f notifierFunc) Notify(ctx context.Context, a Alert) error { return f(ctx, a) }
