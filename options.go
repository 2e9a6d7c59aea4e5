package client

// This file defines functional options that configure the Client during
// construction. They are applied after the configuration is loaded and before
// the transport chain and the executor are built.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout.
//
// Refetches are additionally bounded by the configured fetch timeout; this is
// a coarse safety net for every request. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the http.Client. Its transport becomes the base of
// the identity and debug wrappers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithDebugLogging logs each request and response through zerolog when
// enabled. Do not enable it in production: dumps include headers and bodies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = c.debug || enabled
		return nil
	}
}

// WithLogger sets the logger used by every component.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithExecutorConfig overrides the shard executor settings.
func WithExecutorConfig(cfg ExecutorConfig) Option {
	return func(c *Client) error {
		c.cfg.Queue = cfg
		return nil
	}
}

// WithTransport replaces the push transport chosen by configuration.
func WithTransport(t PushTransport) Option {
	return func(c *Client) error {
		if t == nil {
			return fmt.Errorf("push transport cannot be nil")
		}
		c.transport = t
		return nil
	}
}

// WithUser sets the initial acting user.
func WithUser(name string) Option {
	return func(c *Client) error {
		c.cfg.DefaultUser = name
		return nil
	}
}

// WithNoticeBuffer sets how many undrained notices are kept.
func WithNoticeBuffer(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("notice buffer must be > 0")
		}
		c.noticeBuffer = n
		return nil
	}
}
