package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) DebugObj(string, string, interface{}) {}
func (r *recordingLogger) WarnObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg == "retrying transient request failure" {
		r.warns = append(r.warns, msg)
	}
}

func TestDoSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "7" {
			t.Errorf("missing query param, got %q", got)
		}
		if got := r.Header.Get(HeaderRequestID); got != "req-1" {
			t.Errorf("missing request id header, got %q", got)
		}
		w.Header().Set("X-Echo", "yes")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewRetryingRestyClient(Options{BaseURL: srv.URL, Timeout: time.Second})
	resp, err := client.Do(context.Background(), &Request{
		URL:    "/user",
		Header: http.Header{HeaderRequestID: []string{"req-1"}},
		Query:  url.Values{"id": []string{"7"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode(), resp.Body())
	}
	if resp.Header().Get("X-Echo") != "yes" {
		t.Fatalf("response header not exposed")
	}
	if resp.Attempts() != 1 {
		t.Fatalf("expected single attempt, got %d", resp.Attempts())
	}
}

func TestDoRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	log := &recordingLogger{}
	client := NewRetryingRestyClient(Options{
		BaseURL:    srv.URL,
		Timeout:    time.Second,
		RetryCount: 3,
		RetryDelay: 5 * time.Millisecond,
		Logger:     log,
	})
	resp, err := client.Do(context.Background(), &Request{URL: "/"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("expected final 200, got %d", resp.StatusCode())
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if resp.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got %d", resp.Attempts())
	}
	if len(log.warns) != 2 {
		t.Fatalf("expected 2 retry logs, got %d", len(log.warns))
	}
}

func TestDoDoesNotRetryNonIdempotent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRetryingRestyClient(Options{BaseURL: srv.URL, RetryCount: 3, RetryDelay: time.Millisecond})
	resp, err := client.Do(context.Background(), &Request{Method: http.MethodPost, URL: "/", Body: map[string]string{"a": "b"}})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusBadGateway || calls.Load() != 1 {
		t.Fatalf("expected one 502 call, got status=%d calls=%d", resp.StatusCode(), calls.Load())
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewRetryingRestyClient(Options{BaseURL: srv.URL, RetryCount: 3, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	resp, err := client.Do(ctx, &Request{URL: "/slow"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected no response for cancelled request")
	}
}

func TestDoRejectsNilRequest(t *testing.T) {
	if _, err := NewRestyClient(time.Second).Do(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil request")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil, context.Canceled) {
		t.Fatalf("cancellation must not be retried")
	}
	if !IsTransient(nil, errors.New("connection refused")) {
		t.Fatalf("network errors should be retried")
	}
	if IsTransient(nil, nil) {
		t.Fatalf("nil response without error is not transient")
	}
}
