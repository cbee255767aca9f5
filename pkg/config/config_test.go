package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/duration"
)

// parseArgs builds fresh overrides for each test.
func parseArgs(t *testing.T, args ...string) *Overrides {
	t.Helper()
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return o
}

func env(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(parseArgs(t), nil)
	require.NoError(t, err)

	assert.Equal(t, defaults.VDOM, cfg.VDOM)
	assert.Equal(t, defaults.TimeZone, cfg.TimeZone)
	assert.True(t, cfg.VerifyTLS)
	assert.Equal(t, defaults.OutMonitorCSV, cfg.OutMonitorCSV)
	assert.Equal(t, defaults.OutCMDBCSV, cfg.OutCMDBCSV)
	assert.Equal(t, defaults.OutMergedCSV, cfg.OutMergedCSV)
	assert.Equal(t, defaults.OutPDF, cfg.OutPDF)
	assert.Empty(t, cfg.OutJSON)
	assert.Empty(t, cfg.OutXLSX)
	assert.Equal(t, duration.HTTPAPI, cfg.Timeout)
	assert.Zero(t, cfg.Retries)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadDefaultEnvFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaults.EnvFile),
		[]byte("FORTIGATE_BASE_URL=https://fw.example.com/\nFORTIGATE_TOKEN=abc\n"), 0o600))

	cfg, err := Load(parseArgs(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://fw.example.com", cfg.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, defaults.EnvFile, cfg.ConfigFile)
	require.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "audit.env", `
FORTIGATE_BASE_URL=https://file.example.com
FORTIGATE_TOKEN=file-token
FORTIGATE_VDOM=file-vdom
TIMEZONE=UTC
`)
	o := parseArgs(t, "-config", path, "-vdom", "flag-vdom")
	cfg, err := Load(o, env(map[string]string{
		KeyToken: "env-token",
		KeyVDOM:  "env-vdom",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.BaseURL, "file only")
	assert.Equal(t, "env-token", cfg.Token, "env beats file")
	assert.Equal(t, "flag-vdom", cfg.VDOM, "flag beats env")
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "audit.yaml", `
fortigate_base_url: https://fw.example.com:8443
fortigate_token: yaml-token
verify_ssl: no
http_timeout: 30s
http_retries: 2
out_pdf:
`)
	cfg, err := Load(parseArgs(t, "-config", path), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://fw.example.com:8443", cfg.BaseURL)
	assert.Equal(t, "yaml-token", cfg.Token)
	assert.False(t, cfg.VerifyTLS)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Retries)
	assert.Empty(t, cfg.OutPDF, "null disables the PDF")
}

func TestLoadYAMLRejectsNested(t *testing.T) {
	path := writeFile(t, "audit.yml", "fortigate_base_url:\n  host: fw\n")
	_, err := Load(parseArgs(t, "-config", path), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(parseArgs(t, "-config", filepath.Join(t.TempDir(), "nope.env")), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadVerifySSLFlag(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want bool
	}{
		{"bare flag", []string{"-verify-ssl"}, map[string]string{KeyVerifySSL: "false"}, true},
		{"flag false", []string{"-verify-ssl=false"}, nil, false},
		{"flag off", []string{"-verify-ssl=off"}, nil, false},
		{"env no", nil, map[string]string{KeyVerifySSL: "NO"}, false},
		{"env on", nil, map[string]string{KeyVerifySSL: "On"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(parseArgs(t, tt.args...), env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.VerifyTLS)
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	for key, value := range map[string]string{
		KeyVerifySSL: "maybe",
		KeyTimeout:   "soon",
		KeyRetries:   "many",
	} {
		t.Run(key, func(t *testing.T) {
			_, err := Load(parseArgs(t), env(map[string]string{key: value}))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "y", "on", " On "} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"0", "false", "no", "n", "off", ""} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.False(t, b, v)
	}
	_, err := ParseBool("enabled")
	assert.Error(t, err)
}

func TestParseTimeout(t *testing.T) {
	d, err := parseTimeout("20")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, d)

	d, err = parseTimeout("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseTimeout("fast")
	assert.Error(t, err)
}

func validConfig() *Config {
	cfg := Default()
	cfg.BaseURL = "https://fw.example.com"
	cfg.Token = "abc"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing url", func(c *Config) { c.BaseURL = "" }, ErrMissingRequired},
		{"missing token", func(c *Config) { c.Token = "" }, ErrMissingRequired},
		{"missing merged path", func(c *Config) { c.OutMergedCSV = "" }, ErrMissingRequired},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://fw" }, ErrInvalidConfig},
		{"no host", func(c *Config) { c.BaseURL = "https://" }, ErrInvalidConfig},
		{"empty vdom", func(c *Config) { c.VDOM = "" }, ErrInvalidConfig},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidConfig},
		{"huge timeout", func(c *Config) { c.Timeout = duration.HTTPMax + time.Second }, ErrInvalidConfig},
		{"negative retries", func(c *Config) { c.Retries = -1 }, ErrInvalidConfig},
		{"too many retries", func(c *Config) { c.Retries = MaxRetries + 1 }, ErrInvalidConfig},
		{"bad proxy", func(c *Config) { c.Proxy = "gopher://proxy:70" }, ErrInvalidConfig},
		{"socks proxy", func(c *Config) { c.Proxy = "socks5h://127.0.0.1:1080" }, nil},
		{"pdf disabled", func(c *Config) { c.OutPDF = "" }, nil},
		{"http url", func(c *Config) { c.BaseURL = "http://10.0.0.1:8080" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestValidateNamesFirstMissingOutput(t *testing.T) {
	for range 20 {
		cfg := validConfig()
		cfg.OutMonitorCSV, cfg.OutCMDBCSV, cfg.OutMergedCSV = "", "", ""
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrMissingRequired)
		assert.Equal(t, ErrMissingRequired.Error()+": "+KeyOutMonitor, err.Error())
	}
}

func TestVerboseAndNoColorAliases(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(parseArgs(t, "-v", "-nc"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoColor)
}
