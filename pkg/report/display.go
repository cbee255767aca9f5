package report

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/policy"
)

// DisplayLayout is the compact timestamp form: no offset, no T separator.
const DisplayLayout = "2006-01-02 15:04:05"

var countPrinter = message.NewPrinter(language.English)

// DisplayTime renders ts compactly in the zone it was recorded in.
func DisplayTime(ts policy.Timestamp) string {
	t, ok := ts.Time()
	if !ok {
		return defaults.Unknown
	}
	return t.Format(DisplayLayout)
}

// DisplayTimeString compacts an already rendered timestamp such as
// "2026-01-21T10:07:39+01:00". Values that do not parse are trimmed of the
// separator and any trailing "+..." or "Z..." suffix.
func DisplayTimeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || policy.Sentinel(s) {
		return defaults.Unknown
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DisplayLayout)
	}
	s = strings.Replace(s, "T", " ", 1)
	if i := strings.IndexAny(s, "+Z"); i >= 0 {
		s = s[:i]
	}
	return s
}

// DisplayCount renders a counter with thousands separators.
func DisplayCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}
