package fortigate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyaudit/policyaudit/pkg/httpclient"
	"github.com/policyaudit/policyaudit/pkg/normalize"
)

const statsBody = `{"http_method":"GET","results":[
	{"policyid":5,"bytes":1000,"packets":10,"first_used":1768986459,"last_used":1768990000},
	{"policyid":9,"bytes":0,"packets":0}
],"vdom":"root","status":"success"}`

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: srv.URL + "/", Token: "s3cret", VerifyTLS: true}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestFetchStats_Request(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statsBody))
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, p.Results, 2)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, MonitorPolicyPath, got.URL.Path)
	assert.Equal(t, "root", got.URL.Query().Get("vdom"))
	assert.Equal(t, "Bearer s3cret", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestFetchConfig_Path(t *testing.T) {
	var path, vdom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, vdom = r.URL.Path, r.URL.Query().Get("vdom")
		_, _ = w.Write([]byte(`{"results":[{"policyid":1,"name":"a"}]}`))
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv).FetchConfig(context.Background(), "dmz")
	require.NoError(t, err)
	assert.Len(t, p.Results, 1)
	assert.Equal(t, CMDBPolicyPath, path)
	assert.Equal(t, "dmz", vdom)
}

func TestGet_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		contains string
	}{
		{http.StatusUnauthorized, ErrUnauthorized, "token invalid or missing"},
		{http.StatusForbidden, ErrForbidden, "lacks permission"},
		{http.StatusNotFound, ErrNotFound, "REST API disabled"},
		{http.StatusInternalServerError, nil, "internal error detail"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("internal error detail" + strings.Repeat("x", 1000)))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.LessOrEqual(t, len(apiErr.Excerpt), 300)
			assert.Contains(t, err.Error(), tt.contains)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				for _, s := range []error{ErrUnauthorized, ErrForbidden, ErrNotFound} {
					assert.False(t, errors.Is(err, s))
				}
			}
		})
	}
}

func TestGet_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Contains(t, err.Error(), "<html>login</html>")
}

func TestGet_NonObjectDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
	assert.ErrorIs(t, err, normalize.ErrDataFormat)
}

func TestGet_MissingResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
	require.NoError(t, err)
	assert.Empty(t, p.Results)
}

func TestGet_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.FetchStats(context.Background(), "root")
	assert.ErrorIs(t, err, ErrTransport)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestGet_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
	_, err := c.FetchStats(context.Background(), "root")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGet_SelfSignedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(statsBody))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchStats(context.Background(), "root")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, httpclient.ErrTLS)

	insecure := newTestClient(t, srv, func(cfg *Config) { cfg.VerifyTLS = false })
	p, err := insecure.FetchStats(context.Background(), "root")
	require.NoError(t, err)
	assert.Len(t, p.Results, 2)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty url", Config{Token: "t"}},
		{"no scheme", Config{BaseURL: "10.0.0.1", Token: "t"}},
		{"ftp", Config{BaseURL: "ftp://10.0.0.1", Token: "t"}},
		{"no token", Config{BaseURL: "https://10.0.0.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}

	c, err := New(Config{BaseURL: " https://fw.example:8443/// ", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://fw.example:8443", c.BaseURL())
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Method: "GET", URL: "https://fw/api", StatusCode: 502, Excerpt: "bad gateway body"}
	assert.Equal(t, "fortigate: GET https://fw/api: HTTP 502 Bad Gateway: bad gateway body", err.Error())
	assert.Nil(t, err.Unwrap())
}
