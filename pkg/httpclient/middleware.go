package httpclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/policyaudit/policyaudit/pkg/duration"
	"github.com/policyaudit/policyaudit/pkg/iohelper"
)

// middlewareTransport stamps the User-Agent and auth headers on every
// request and retries throttled or failed round trips.
type middlewareTransport struct {
	base        http.RoundTripper
	userAgent   string
	authHeaders http.Header
	retryCount  int
	retryDelay  time.Duration
}

// FortiOS answers 429 when the REST API rate limit is hit and 503 while
// the management daemon restarts.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusServiceUnavailable: true,
}

func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if m.userAgent != "" {
		r.Header.Set("User-Agent", m.userAgent)
	}
	for key, vals := range m.authHeaders {
		r.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}

	wait := m.retryDelay
	for attempt := 0; ; attempt++ {
		resp, err := m.base.RoundTrip(r)
		last := attempt >= m.retryCount
		switch {
		case err != nil:
			if last || r.Context().Err() != nil {
				return nil, err
			}
		case retryableStatusCodes[resp.StatusCode] && !last:
			wait = retryAfter(resp.Header.Get("Retry-After"), m.retryDelay)
			_ = iohelper.DrainAndClose(resp.Body)
		default:
			return resp, nil
		}

		if err := sleepCtx(r, wait); err != nil {
			return nil, err
		}
		if r.GetBody != nil {
			if r.Body, err = r.GetBody(); err != nil {
				return nil, err
			}
		}
	}
}

// retryAfter reads a Retry-After header given in seconds. Missing or
// unparsable values fall back to def; large ones are capped.
func retryAfter(header string, def time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return def
	}
	return min(time.Duration(secs)*time.Second, duration.RetryAfterMax)
}

func sleepCtx(r *http.Request, d time.Duration) error {
	if d <= 0 {
		return r.Context().Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-r.Context().Done():
		return r.Context().Err()
	case <-t.C:
		return nil
	}
}

// needsMiddleware reports whether the config requires the middleware transport.
func needsMiddleware(cfg Config) bool {
	return cfg.UserAgent != "" ||
		len(cfg.AuthHeaders) > 0 ||
		cfg.RetryCount > 0
}

// redirectPolicyWithAuthStrip never follows redirects: a redirect from the
// REST API means the base URL is wrong, so the caller sees the 3xx. Auth
// headers are removed from a cross-origin target all the same.
func redirectPolicyWithAuthStrip(authHeaders http.Header) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && req.URL.Host != via[0].URL.Host {
			for key := range authHeaders {
				req.Header.Del(key)
			}
		}
		return http.ErrUseLastResponse
	}
}
