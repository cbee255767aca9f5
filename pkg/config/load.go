package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/policyaudit/policyaudit/pkg/defaults"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load resolves the configuration. The config file named by o (or the
// default .env when present) is read first, then the environment, then the
// flags. A nil lookup ignores the environment.
func Load(o *Overrides, lookup LookupFunc) (*Config, error) {
	if o == nil {
		o = &Overrides{}
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	cfg := Default()
	cfg.Verbose = o.Verbose
	cfg.NoColor = o.NoColor

	path := o.ConfigFile
	explicit := path != ""
	if !explicit {
		path = defaults.EnvFile
	}
	file, err := ReadFile(path)
	switch {
	case err == nil:
		cfg.ConfigFile = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		file = nil
	case errors.Is(err, ErrInvalidConfig):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for _, s := range settings() {
		v, ok := file[s.key]
		if ev, found := lookup(s.key); found {
			v, ok = ev, true
		}
		if fv := o.values[s.key]; fv != nil && fv.set {
			v, ok = fv.value, true
			if s.isBool && v == "" {
				v = "true"
			}
		}
		if !ok {
			continue
		}
		if err := s.apply(cfg, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, s.key, err)
		}
	}
	return cfg, nil
}

// ReadFile reads a config file into a key/value map. Keys are upper-cased
// so YAML files may use either fortigate_base_url or FORTIGATE_BASE_URL.
func ReadFile(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAML(path)
	default:
		return readDotEnv(path)
	}
}

func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return upperKeys(m), nil
}

func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	m := make(map[string]string, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case nil:
			m[k] = ""
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: %s: key %s must be a scalar", ErrInvalidConfig, path, k)
		default:
			m[k] = fmt.Sprint(val)
		}
	}
	return upperKeys(m), nil
}

func upperKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}
