package defaults_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// TestVersionConsistency ensures all version references match defaults.Version
func TestVersionConsistency(t *testing.T) {
	if ui.Version != defaults.Version {
		t.Errorf("ui.Version (%s) != defaults.Version (%s)", ui.Version, defaults.Version)
	}

	semverPattern := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9]+)?$`)
	if !semverPattern.MatchString(defaults.Version) {
		t.Errorf("defaults.Version (%s) is not valid semver", defaults.Version)
	}
}

// TestNoHardcodedSentinel ensures the "N/A" placeholder is only spelled out
// in this package. Everything else must go through defaults.Unknown so the
// rendered sentinel can change in one place.
func TestNoHardcodedSentinel(t *testing.T) {
	root := findProjectRoot(t)
	var violations []string

	for _, dir := range []string{"pkg", "cmd"} {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		_ = filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			if strings.HasSuffix(path, "_test.go") || strings.Contains(path, filepath.Join("pkg", "defaults")) {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			for i, line := range strings.Split(string(content), "\n") {
				if strings.Contains(line, `"N/A"`) {
					relPath, _ := filepath.Rel(root, path)
					violations = append(violations, relPath+":"+strconv.Itoa(i+1))
				}
			}
			return nil
		})
	}

	for _, v := range violations {
		t.Errorf("hardcoded sentinel, use defaults.Unknown: %s", v)
	}
}

func TestExitCodesDistinct(t *testing.T) {
	codes := map[int]string{}
	for name, code := range map[string]int{
		"success":  defaults.ExitSuccess,
		"user":     defaults.ExitUserError,
		"network":  defaults.ExitNetworkError,
		"internal": defaults.ExitInternalError,
	} {
		if prev, ok := codes[code]; ok {
			t.Errorf("exit code %d shared by %s and %s", code, prev, name)
		}
		codes[code] = name
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
