package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/proxy"
)

// defaultProxyPorts fills in the port when the proxy URL has none.
var defaultProxyPorts = map[string]string{
	"http":    "8080",
	"https":   "8443",
	"socks5":  "1080",
	"socks5h": "1080",
}

// Proxy is a parsed FORTIGATE_PROXY value. HTTP(S) proxies tunnel with
// CONNECT; SOCKS5 proxies replace the transport dialer. socks5h leaves
// name resolution to the proxy, which matters when the appliance name only
// resolves inside the management network.
type Proxy struct {
	URL *url.URL
}

// ParseProxy parses raw. An empty string means no proxy and returns nil.
// A value without a scheme is treated as an HTTP proxy.
func ParseProxy(raw string) (*Proxy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	port, ok := defaultProxyPorts[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported proxy scheme %q, supported: http, https, socks5, socks5h", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("proxy URL %q has no host", raw)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), port)
	}
	return &Proxy{URL: u}, nil
}

// ValidateProxyURL reports whether raw can be used as a proxy.
func ValidateProxyURL(raw string) error {
	_, err := ParseProxy(raw)
	return err
}

// SOCKS reports whether the proxy speaks SOCKS5.
func (p *Proxy) SOCKS() bool {
	return p != nil && strings.HasPrefix(p.URL.Scheme, "socks5")
}

// String returns the proxy URL without credentials, for banners and logs.
func (p *Proxy) String() string {
	if p == nil {
		return ""
	}
	return p.URL.Redacted()
}

// apply routes transport through the proxy. forward dials the proxy itself.
func (p *Proxy) apply(transport *http.Transport, forward *net.Dialer) error {
	if p == nil {
		return nil
	}
	if !p.SOCKS() {
		transport.Proxy = http.ProxyURL(p.URL)
		return nil
	}

	d, err := proxy.FromURL(p.URL, forward)
	if err != nil {
		return fmt.Errorf("socks dialer for %s: %w", p, err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
		return nil
	}
	transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
	return nil
}
