package gateway

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// HeaderUser carries the acting user on every request.
	HeaderUser = "x-user-id"
	// HeaderRequestID correlates a request with server logs.
	HeaderRequestID = "X-Request-ID"
)

// Identity yields the acting user at send time.
type Identity interface {
	Current() string
}

// identityTransport wraps an http.RoundTripper and stamps every request with
// the current user and a fresh request id.
type identityTransport struct {
	base     http.RoundTripper
	identity Identity
}

func (t *identityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	cloned := req.Clone(req.Context())
	if user := t.identity.Current(); user != "" {
		cloned.Header.Set(HeaderUser, user)
	}
	if cloned.Header.Get(HeaderRequestID) == "" {
		cloned.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return t.base.RoundTrip(cloned)
}

// debugTransport dumps requests and responses through zerolog. It is enabled
// with DISASTERWATCH_DEBUG=true or DEBUG=true and logs bodies and headers, so
// keep it out of production.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// DebugLoggingRequested checks the DISASTERWATCH_DEBUG and DEBUG env vars.
func DebugLoggingRequested() bool {
	return os.Getenv("DISASTERWATCH_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

// Wrap installs the transport chain on hc: identity outermost, then the
// optional debug dumper, then whatever transport hc already had.
func Wrap(hc *http.Client, identity Identity, debug bool) {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if debug {
		base = &debugTransport{base: base}
	}
	hc.Transport = &identityTransport{base: base, identity: identity}
}
