// Package fortigate fetches firewall policy documents from a FortiGate
// REST API: live traffic counters from the monitor endpoint and rule
// configuration from the CMDB endpoint.
package fortigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/httpclient"
	"github.com/policyaudit/policyaudit/pkg/iohelper"
	"github.com/policyaudit/policyaudit/pkg/jsonutil"
	"github.com/policyaudit/policyaudit/pkg/normalize"
)

// API paths.
const (
	MonitorPolicyPath = "/api/v2/monitor/firewall/policy"
	CMDBPolicyPath    = "/api/v2/cmdb/firewall/policy"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the appliance address, e.g. https://10.0.0.1:8443.
	BaseURL string

	// Token is the REST API administrator token.
	Token string

	// VerifyTLS enables certificate verification.
	VerifyTLS bool

	// Timeout bounds each request (default: 15s).
	Timeout time.Duration

	// Proxy is an optional proxy URL.
	Proxy string

	// Retries is how many times a throttled request is retried.
	Retries int

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a read-only FortiGate REST API client.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// New validates cfg and builds a client. The base URL must be absolute
// http or https; a trailing slash is dropped.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("fortigate: base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("fortigate: base url %q must be http(s)://host[:port]", cfg.BaseURL)
	}
	if cfg.Token == "" {
		return nil, errors.New("fortigate: token is empty")
	}

	hc := httpclient.DefaultConfig()
	hc.InsecureSkipVerify = !cfg.VerifyTLS
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	hc.Proxy = cfg.Proxy
	hc.RetryCount = cfg.Retries
	hc.AuthHeaders = http.Header{"Authorization": {"Bearer " + cfg.Token}}

	return &Client{
		base:   u,
		http:   httpclient.New(hc),
		logger: orDefault(cfg.Logger),
		tracer: otel.Tracer("github.com/policyaudit/policyaudit/pkg/fortigate"),
	}, nil
}

// BaseURL returns the normalized appliance address.
func (c *Client) BaseURL() string { return c.base.String() }

// FetchStats returns the traffic-statistics document for vdom.
func (c *Client) FetchStats(ctx context.Context, vdom string) (normalize.Payload, error) {
	return c.Get(ctx, MonitorPolicyPath, vdom)
}

// FetchConfig returns the policy-configuration document for vdom.
func (c *Client) FetchConfig(ctx context.Context, vdom string) (normalize.Payload, error) {
	return c.Get(ctx, CMDBPolicyPath, vdom)
}

// Get performs one GET against path scoped to vdom and decodes the body.
func (c *Client) Get(ctx context.Context, path, vdom string) (normalize.Payload, error) {
	u := c.base.JoinPath(path)
	q := u.Query()
	if vdom != "" {
		q.Set("vdom", vdom)
	}
	u.RawQuery = q.Encode()
	target := u.String()

	ctx, span := c.tracer.Start(ctx, "fortigate.get", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", path),
			attribute.String("fortigate.vdom", vdom),
		))
	defer span.End()

	payload, err := c.get(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return normalize.Payload{}, err
	}
	span.SetAttributes(attribute.Int("fortigate.results", len(payload.Results)))
	return payload, nil
}

func (c *Client) get(ctx context.Context, target string) (normalize.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", defaults.AcceptJSON)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", slog.String("url", target), slog.String("error", err.Error()))
		return normalize.Payload{}, fmt.Errorf("%w: GET %s: %w", ErrTransport, target, httpclient.Classify(err))
	}
	defer iohelper.DrainAndClose(resp.Body)

	c.logger.Debug("response",
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := iohelper.ReadBodySmall(resp.Body)
		return normalize.Payload{}, &APIError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: resp.StatusCode,
			Excerpt:    iohelper.Excerpt(body, defaults.ErrorExcerpt),
		}
	}

	body, err := iohelper.ReadBodyStrict(resp.Body, iohelper.MaxBodySize)
	if errors.Is(err, iohelper.ErrBodyTooLarge) {
		return normalize.Payload{}, fmt.Errorf("%w: GET %s: %w", ErrInvalidResponse, target, err)
	}
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("%w: GET %s: read body: %w", ErrTransport, target, err)
	}
	if !jsonutil.Valid(body) {
		return normalize.Payload{}, fmt.Errorf("%w: GET %s: %s", ErrInvalidResponse, target, iohelper.Excerpt(body, defaults.ErrorExcerpt))
	}

	payload, err := normalize.ParseBytes(body)
	if err != nil {
		return normalize.Payload{}, fmt.Errorf("GET %s: %w", target, err)
	}
	return payload, nil
}
