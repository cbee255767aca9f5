// Package config loads the policy-audit configuration.
//
// Values come from three sources. Command-line flags win over the process
// environment, which wins over the config file. The config file is a .env
// file, or YAML when its extension is .yaml or .yml.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/duration"
	"github.com/policyaudit/policyaudit/pkg/httpclient"
)

// Environment / config file keys.
const (
	KeyBaseURL      = "FORTIGATE_BASE_URL"
	KeyToken        = "FORTIGATE_TOKEN"
	KeyVDOM         = "FORTIGATE_VDOM"
	KeyTimeZone     = "TIMEZONE"
	KeyVerifySSL    = "VERIFY_SSL"
	KeyOutMonitor   = "OUT_CSV_MONITOR"
	KeyOutCMDB      = "OUT_CSV_CMDB"
	KeyOutMerged    = "OUT_CSV_MERGED"
	KeyOutPDF       = "OUT_PDF"
	KeyOutJSON      = "OUT_JSON"
	KeyOutXLSX      = "OUT_XLSX"
	KeyMetricsFile  = "METRICS_FILE"
	KeyTimeout      = "HTTP_TIMEOUT"
	KeyOTelEndpoint = "OTEL_ENDPOINT"
	KeyProxy        = "FORTIGATE_PROXY"
	KeyRetries      = "HTTP_RETRIES"
)

// MaxRetries bounds HTTP_RETRIES.
const MaxRetries = 10

// Config holds the settings of an audit run.
type Config struct {
	// Appliance
	BaseURL   string
	Token     string
	VDOM      string
	TimeZone  string
	VerifyTLS bool

	// Artifacts
	OutMonitorCSV string
	OutCMDBCSV    string
	OutMergedCSV  string
	OutPDF        string // empty disables the PDF report
	OutJSON       string
	OutXLSX       string
	MetricsFile   string

	// Transport
	Timeout time.Duration
	Proxy   string
	Retries int

	// Observability
	OTelEndpoint string
	Verbose      bool
	NoColor      bool

	// ConfigFile is the file the values were read from, empty when none.
	ConfigFile string
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		VDOM:          defaults.VDOM,
		TimeZone:      defaults.TimeZone,
		VerifyTLS:     defaults.VerifyTLS,
		OutMonitorCSV: defaults.OutMonitorCSV,
		OutCMDBCSV:    defaults.OutCMDBCSV,
		OutMergedCSV:  defaults.OutMergedCSV,
		OutPDF:        defaults.OutPDF,
		Timeout:       duration.HTTPAPI,
	}
}

// setting binds one key to its flag and destination field.
type setting struct {
	key    string
	flag   string
	usage  string
	isBool bool
	apply  func(c *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = strings.TrimSpace(v)
		return nil
	}
}

func settings() []setting {
	return []setting{
		{key: KeyBaseURL, flag: "url", usage: "FortiGate base URL (https://host[:port])",
			apply: func(c *Config, v string) error {
				c.BaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
				return nil
			}},
		{key: KeyToken, flag: "token", usage: "REST API bearer token",
			apply: str(func(c *Config) *string { return &c.Token })},
		{key: KeyVDOM, flag: "vdom", usage: "Virtual domain to audit (default " + defaults.VDOM + ")",
			apply: str(func(c *Config) *string { return &c.VDOM })},
		{key: KeyTimeZone, flag: "tz", usage: "Time zone for first/last used timestamps (default " + defaults.TimeZone + ")",
			apply: str(func(c *Config) *string { return &c.TimeZone })},
		{key: KeyVerifySSL, flag: "verify-ssl", usage: "Verify the appliance TLS certificate (default true)", isBool: true,
			apply: func(c *Config, v string) error {
				b, err := ParseBool(v)
				if err != nil {
					return err
				}
				c.VerifyTLS = b
				return nil
			}},
		{key: KeyOutMonitor, flag: "out-monitor", usage: "Monitor CSV path (default " + defaults.OutMonitorCSV + ")",
			apply: str(func(c *Config) *string { return &c.OutMonitorCSV })},
		{key: KeyOutCMDB, flag: "out-cmdb", usage: "CMDB CSV path (default " + defaults.OutCMDBCSV + ")",
			apply: str(func(c *Config) *string { return &c.OutCMDBCSV })},
		{key: KeyOutMerged, flag: "out-merged", usage: "Merged CSV path (default " + defaults.OutMergedCSV + ")",
			apply: str(func(c *Config) *string { return &c.OutMergedCSV })},
		{key: KeyOutPDF, flag: "out-pdf", usage: "PDF report path, empty disables (default " + defaults.OutPDF + ")",
			apply: str(func(c *Config) *string { return &c.OutPDF })},
		{key: KeyOutJSON, flag: "out-json", usage: "JSON record dump path",
			apply: str(func(c *Config) *string { return &c.OutJSON })},
		{key: KeyOutXLSX, flag: "out-xlsx", usage: "XLSX workbook path",
			apply: str(func(c *Config) *string { return &c.OutXLSX })},
		{key: KeyMetricsFile, flag: "metrics-file", usage: "Prometheus textfile path",
			apply: str(func(c *Config) *string { return &c.MetricsFile })},
		{key: KeyTimeout, flag: "timeout", usage: "HTTP timeout per request (default 15s)",
			apply: func(c *Config, v string) error {
				d, err := parseTimeout(v)
				if err != nil {
					return err
				}
				c.Timeout = d
				return nil
			}},
		{key: KeyOTelEndpoint, flag: "otel-endpoint", usage: "OTLP gRPC endpoint for traces (host:port)",
			apply: str(func(c *Config) *string { return &c.OTelEndpoint })},
		{key: KeyProxy, flag: "proxy", usage: "HTTP/SOCKS5 proxy URL",
			apply: str(func(c *Config) *string { return &c.Proxy })},
		{key: KeyRetries, flag: "retries", usage: "Retries on transport errors, 429 and 503",
			apply: func(c *Config, v string) error {
				n, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil {
					return fmt.Errorf("not an integer: %q", v)
				}
				c.Retries = n
				return nil
			}},
	}
}

// parseTimeout accepts a Go duration ("30s") or a bare number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %q", v)
	}
	return d, nil
}

// ParseBool accepts 1/true/yes/y/on and 0/false/no/n/off, case-insensitively.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}

// Validate checks the settings an audit run needs.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: %s (-url)", ErrMissingRequired, KeyBaseURL)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: %s (-token)", ErrMissingRequired, KeyToken)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", ErrInvalidConfig, KeyBaseURL, c.BaseURL)
	}
	for _, out := range []struct{ key, path string }{
		{KeyOutMonitor, c.OutMonitorCSV},
		{KeyOutCMDB, c.OutCMDBCSV},
		{KeyOutMerged, c.OutMergedCSV},
	} {
		if out.path == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequired, out.key)
		}
	}
	if c.VDOM == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, KeyVDOM)
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Timeout <= 0 || c.Timeout > duration.HTTPMax {
		return fmt.Errorf("%w: %s must be within (0, %s], got %s", ErrInvalidConfig, KeyTimeout, duration.HTTPMax, c.Timeout)
	}
	if c.Retries < 0 || c.Retries > MaxRetries {
		return fmt.Errorf("%w: %s must be within [0, %d], got %d", ErrInvalidConfig, KeyRetries, MaxRetries, c.Retries)
	}
	if c.Proxy != "" {
		if err := httpclient.ValidateProxyURL(c.Proxy); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyProxy, err)
		}
	}
	return nil
}

// RegisterFlags binds every setting to fs. The returned overrides hold only
// the flags the user actually passed once fs has been parsed.
func RegisterFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{values: map[string]*flagValue{}}
	for _, s := range settings() {
		v := &flagValue{isBool: s.isBool}
		o.values[s.key] = v
		fs.Var(v, s.flag, s.usage)
	}
	fs.StringVar(&o.ConfigFile, "config", "", "Config file (.env, .yaml or .yml; default "+defaults.EnvFile+" when present)")
	fs.BoolVar(&o.Verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&o.Verbose, "v", false, "Debug logging (alias)")
	fs.BoolVar(&o.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&o.NoColor, "nc", false, "No color (alias)")
	return o
}

// Overrides are the values given on the command line.
type Overrides struct {
	ConfigFile string
	Verbose    bool
	NoColor    bool
	values     map[string]*flagValue
}

// flagValue records whether a flag was set so defaults never shadow the
// environment or the config file.
type flagValue struct {
	value  string
	set    bool
	isBool bool
}

func (f *flagValue) String() string {
	if f == nil {
		return ""
	}
	return f.value
}

func (f *flagValue) Set(s string) error {
	if f.isBool {
		if _, err := ParseBool(s); err != nil {
			return err
		}
	}
	f.value = s
	f.set = true
	return nil
}

func (f *flagValue) IsBoolFlag() bool { return f.isBool }
