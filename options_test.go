package client

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/disasterwatch/client/internal/gateway"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestWithHTTPTimeout(t *testing.T) {
	c := &Client{http: &http.Client{}}
	if err := WithHTTPTimeout(5 * time.Second)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.http.Timeout != 5*time.Second {
		t.Fatalf("http timeout not set")
	}
	if err := WithHTTPTimeout(-time.Second)(c); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestWithHTTPClient_StampsIdentity(t *testing.T) {
	var gotUser, gotReqID string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotUser = r.Header.Get(gateway.HeaderUser)
		gotReqID = r.Header.Get(gateway.HeaderRequestID)
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	c, err := New(nil, WithHTTPClient(&http.Client{Transport: rt}), WithUser("citizen1"), WithTransport(quietTransport{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", strings.NewReader(""))
	if _, err := c.http.Do(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotUser != "citizen1" {
		t.Fatalf("expected identity header citizen1, got %q", gotUser)
	}
	if gotReqID == "" {
		t.Fatalf("expected a request id")
	}

	if err := c.SetUser("reliefAdmin"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if _, err := c.http.Do(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotUser != "reliefAdmin" {
		t.Fatalf("identity must be read at send time, got %q", gotUser)
	}
}

func TestDebugLoggingViaEnv_ErrorPath(t *testing.T) {
	t.Setenv("DISASTERWATCH_DEBUG", "true")
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	c, err := New(nil, WithHTTPClient(&http.Client{Transport: rt}), WithTransport(quietTransport{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if !c.debug {
		t.Fatalf("expected debug logging to be enabled by env")
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := c.http.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}

func TestWithNoticeBufferAndExecutorConfig(t *testing.T) {
	if _, err := New(nil, WithNoticeBuffer(0)); err == nil {
		t.Fatalf("expected error for empty notice buffer")
	}
	c, err := New(nil, WithNoticeBuffer(3), WithExecutorConfig(ExecutorConfig{Shards: 1, MaxAttempts: 1}), WithTransport(quietTransport{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if cap(c.notices) != 3 {
		t.Fatalf("expected notice buffer 3, got %d", cap(c.notices))
	}
	if c.cfg.Queue.Shards != 1 {
		t.Fatalf("executor config not applied")
	}
}

func TestPendingWait(t *testing.T) {
	var p pending
	if err := p.wait(context.Background()); err != nil {
		t.Fatalf("idle wait: %v", err)
	}
	p.add()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.wait(ctx); err == nil {
		t.Fatalf("expected deadline while a job is pending")
	}
	go p.done()
	if err := p.wait(context.Background()); err != nil {
		t.Fatalf("wait after done: %v", err)
	}
}
