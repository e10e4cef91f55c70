package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "tok", UserAgent: "codesync-test"})
	body, err := c.Do(context.Background(), http.MethodPost, "/v1/ping", []byte(`{}`), "req-1", "sess-1")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestDoRetriesOnServiceUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), http.MethodGet, "/v1/flaky", nil, "", "")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoFailsFastOnUnauthenticated(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), http.MethodGet, "/v1/secret", nil, "", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call for a fatal status, got %d", calls)
	}

	transportErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !transportErr.Status.IsFatal() {
		t.Errorf("expected fatal status, got %v", transportErr.Status)
	}
}

func TestCircuitBreakerOpensAfterExhaustedRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.Do(context.Background(), http.MethodGet, "/v1/down", nil, "", "")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	firstCalls := atomic.LoadInt32(&calls)

	_, err = c.Do(context.Background(), http.MethodGet, "/v1/down", nil, "", "")
	if err == nil {
		t.Fatal("expected circuit-open error")
	}
	if atomic.LoadInt32(&calls) != firstCalls {
		t.Errorf("expected no new calls while breaker is open, had %d then %d", firstCalls, calls)
	}
}
