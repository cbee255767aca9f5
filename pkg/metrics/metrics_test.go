package metrics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/report"
)

func testReport() *report.Report {
	return &report.Report{
		Meta: report.Meta{
			VDOM:      "root",
			Generated: time.Date(2026, 1, 21, 10, 7, 39, 0, time.UTC),
		},
		Summary: report.Summary{Total: 10, WithTraffic: 6, NoTraffic: 4, Permissive: 3},
	}
}

func TestObserve(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	r.Observe(testReport(), 2500*time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.policies.WithLabelValues("root")))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.findings.WithLabelValues("root", FindingWithTraffic)))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.findings.WithLabelValues("root", FindingNoTraffic)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.findings.WithLabelValues("root", FindingPermissive)))
	assert.Equal(t, 2.5, testutil.ToFloat64(r.durationSecs.WithLabelValues("root")))
	assert.Equal(t, float64(1768990059), testutil.ToFloat64(r.lastRun.WithLabelValues("root")))
}

func TestGatherExposition(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	r.Observe(testReport(), time.Second)

	expected := `
# HELP policy_audit_findings Number of policies per audit finding
# TYPE policy_audit_findings gauge
policy_audit_findings{finding="no_traffic",vdom="root"} 4
policy_audit_findings{finding="permissive",vdom="root"} 3
policy_audit_findings{finding="with_traffic",vdom="root"} 6
# HELP policy_audit_policies Number of firewall policies in the reconciled set
# TYPE policy_audit_policies gauge
policy_audit_policies{vdom="root"} 10
`
	err = testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"policy_audit_findings", "policy_audit_policies")
	assert.NoError(t, err)
}

func TestEncode(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	r.Observe(testReport(), time.Second)

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))

	text := buf.String()
	assert.Contains(t, text, "# TYPE policy_audit_policies gauge")
	assert.Contains(t, text, `policy_audit_policies{vdom="root"} 10`)
	assert.Contains(t, text, `policy_audit_info{version="`+defaults.Version+`"} 1`)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeWriteError(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Encode(failWriter{}))
}
