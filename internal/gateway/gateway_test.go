package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

type staticIdentity string

func (s staticIdentity) Current() string { return string(s) }

// errRT is an http.RoundTripper that always returns an error (simulates network failure).
type errRT struct{}

func (e *errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, fmt.Errorf("boom") }

func newTestGateway(t *testing.T, srv *httptest.Server, user string) *Gateway {
	t.Helper()
	hc := srv.Client()
	Wrap(hc, staticIdentity(user), false)
	return New(srv.URL+"/api", hc, zerolog.Nop())
}

func TestCall_AttachesIdentityAndEncodesBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderUser) != "netrunnerX" {
			t.Errorf("missing identity header, got %q", r.Header.Get(HeaderUser))
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Errorf("missing request id")
		}
		if r.URL.Path != "/api/disasters" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "x1", "title": in["title"]})
	}))
	defer srv.Close()

	g := newTestGateway(t, srv, "netrunnerX")
	var out struct{ ID, Title string }
	if err := g.Call(context.Background(), http.MethodPost, "/disasters", map[string]string{"title": "Flood A"}, &out); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.ID != "x1" || out.Title != "Flood A" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestCall_NoBodyOnGet(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if len(b) != 0 {
			t.Errorf("GET carried a body: %q", b)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	var out []any
	if err := newTestGateway(t, srv, "u").Call(context.Background(), http.MethodGet, "/disasters", nil, &out); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestCall_StatusErrorCarriesMessage(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not the owner"}`))
	}))
	defer srv.Close()
	err := newTestGateway(t, srv, "u").Call(context.Background(), http.MethodDelete, "/disasters/d1", nil, nil)
	if !apierrors.IsStatus(err) || apierrors.StatusCodeOf(err) != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
	var ae *apierrors.APIError
	if !asAPI(err, &ae) || ae.Message != "not the owner" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCall_StatusErrorWithoutBodyUsesStatusText(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	err := newTestGateway(t, srv, "u").Call(context.Background(), http.MethodGet, "/disasters", nil, nil)
	var ae *apierrors.APIError
	if !asAPI(err, &ae) || ae.Message != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCall_MalformedJSONIsTransport(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()
	var out map[string]any
	err := newTestGateway(t, srv, "u").Call(context.Background(), http.MethodGet, "/disasters", nil, &out)
	if !apierrors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCall_NetworkFailureIsTransport(t *testing.T) {
	t.Parallel()
	hc := &http.Client{Transport: &errRT{}}
	Wrap(hc, staticIdentity("u"), false)
	g := New("http://unreachable.invalid/api", hc, zerolog.Nop())
	err := g.Call(context.Background(), http.MethodGet, "/disasters", nil, nil)
	if !apierrors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCall_TimeoutIsTransport(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := newTestGateway(t, srv, "u").Call(ctx, http.MethodGet, "/disasters", nil, nil)
	if !apierrors.IsTransport(err) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
}

func TestErrorMessageShapes(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		`{"error":"a"}`:             "a",
		`{"error":{"message":"b"}}`: "b",
		`{"message":"c"}`:           "c",
		`{"detail":"d"}`:            "d",
		`plain text`:                "plain text",
		``:                          "",
	}
	for in, want := range cases {
		if got := errorMessage([]byte(in)); got != want {
			t.Fatalf("errorMessage(%q) = %q, want %q", in, got, want)
		}
	}
}

func asAPI(err error, target **apierrors.APIError) bool {
	ae, ok := err.(*apierrors.APIError)
	if ok {
		*target = ae
	}
	return ok
}
