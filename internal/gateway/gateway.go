// Package gateway is the uniform envelope around every call to the remote
// disaster service: identity header, JSON encoding and decoding, and
// normalisation of every failure into an APIError.
//
// The gateway performs no retries and has no side effects beyond the network
// call itself; retry and timeout policy belong to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

// Caller is the contract consumed by internal/api and the facade.
type Caller interface {
	Call(ctx context.Context, method, path string, body, out any) error
}

// Gateway implements Caller on top of resty.
type Gateway struct {
	rc  *resty.Client
	log zerolog.Logger
}

// New builds a Gateway for baseURL. hc must already carry the transport chain
// installed by Wrap; the gateway never mutates it.
func New(baseURL string, hc *http.Client, logger zerolog.Logger) *Gateway {
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(restyLogger{log: logger})
	return &Gateway{rc: rc, log: logger}
}

// Call performs method on path. body, when non-nil, is JSON encoded; out,
// when non-nil, receives the decoded 2xx body.
func (g *Gateway) Call(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	if err := ctx.Err(); err != nil {
		return apierrors.NewTransportError(op, err)
	}

	req := g.rc.R().SetContext(ctx)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apierrors.NewValidationError("body", fmt.Sprintf("encode request: %v", err))
		}
		req.SetBody(raw)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		requestsTotal.WithLabelValues(method, "transport_error").Inc()
		g.log.Debug().Err(err).Str("op", op).Msg("gateway transport failure")
		return apierrors.NewTransportError(op, err)
	}
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode())).Inc()

	if !resp.IsSuccess() {
		return apierrors.NewStatusError(op, resp.StatusCode(), errorMessage(resp.Body()))
	}

	raw := bytes.TrimSpace(resp.Body())
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierrors.NewTransportError(op, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var env struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch v := env.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
		if env.Message != "" {
			return env.Message
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return string(body)
}

// restyLogger routes resty's internal warnings through zerolog.
type restyLogger struct{ log zerolog.Logger }

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
