// Package httpclient builds the HTTP clients used to talk to the appliance.
// Every client in the codebase comes from New so that TLS verification,
// proxying, timeouts and auth headers are configured in one place.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total request timeout (default: 15s)
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification. Appliances
	// often present self-signed certificates.
	InsecureSkipVerify bool

	// Proxy is an http, https, socks5 or socks5h proxy URL (optional).
	Proxy string

	// IdleConnTimeout is how long idle connections stay in pool (default: 90s)
	IdleConnTimeout time.Duration

	// DialTimeout is the timeout for establishing connections (default: 10s)
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the timeout for TLS handshake (default: 10s)
	TLSHandshakeTimeout time.Duration

	// UserAgent is sent on every request (default: tool name and version).
	UserAgent string

	// AuthHeaders are added to every request to the configured host and
	// stripped on cross-origin redirects.
	AuthHeaders http.Header

	// RetryCount is how many times a throttled (429/503) request or a
	// transport error is retried.
	RetryCount int

	// RetryDelay is the pause between retries (default: 1s).
	RetryDelay time.Duration
}

// DefaultConfig returns the settings used for appliance API calls.
func DefaultConfig() Config {
	return Config{
		Timeout:             duration.HTTPAPI,
		InsecureSkipVerify:  !defaults.VerifyTLS,
		IdleConnTimeout:     duration.IdleConnTimeout,
		DialTimeout:         duration.DialTimeout,
		TLSHandshakeTimeout: duration.TLSHandshake,
		UserAgent:           defaults.UAMinimal,
		RetryDelay:          duration.RetryDelay,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns a shared client built from DefaultConfig.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New(DefaultConfig())
	})
	return defaultClient
}

// New creates a new HTTP client with the given configuration.
// Zero values fall back to DefaultConfig. A proxy URL that does not parse
// is ignored; use ValidateProxyURL to reject it up front.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.HTTPAPI
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = duration.IdleConnTimeout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = duration.DialTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = duration.TLSHandshake
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = duration.RetryDelay
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		DialContext:         dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // operator opt-in
			MinVersion:         tls.VersionTLS12,
		},
	}

	if p, err := ParseProxy(cfg.Proxy); err == nil {
		_ = p.apply(transport, dialer)
	}

	var rt http.RoundTripper = transport
	if needsMiddleware(cfg) {
		rt = &middlewareTransport{
			base:        transport,
			userAgent:   cfg.UserAgent,
			authHeaders: cfg.AuthHeaders,
			retryCount:  cfg.RetryCount,
			retryDelay:  cfg.RetryDelay,
		}
	}

	return &http.Client{
		Transport:     rt,
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectPolicyWithAuthStrip(cfg.AuthHeaders),
	}
}

// WithTimeout returns DefaultConfig with the specified timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}
