// Package metrics exports audit results in the Prometheus text format.
//
// An audit is a batch job, so instead of serving /metrics the results are
// written to a file for the node_exporter textfile collector. The file is
// committed together with the other run artifacts.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/report"
)

// Finding label values.
const (
	FindingWithTraffic = "with_traffic"
	FindingNoTraffic   = "no_traffic"
	FindingPermissive  = "permissive"
)

// Recorder holds the gauges of one audit run in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	policies     *prometheus.GaugeVec
	findings     *prometheus.GaugeVec
	lastRun      *prometheus.GaugeVec
	durationSecs *prometheus.GaugeVec
	info         *prometheus.GaugeVec
}

// New creates a Recorder with every collector registered.
func New() (*Recorder, error) {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.policies = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_audit_policies",
			Help: "Number of firewall policies in the reconciled set",
		},
		[]string{"vdom"},
	)
	r.findings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_audit_findings",
			Help: "Number of policies per audit finding",
		},
		[]string{"vdom", "finding"},
	)
	r.lastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_audit_last_run_timestamp_seconds",
			Help: "Unix time the audit report was generated",
		},
		[]string{"vdom"},
	)
	r.durationSecs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_audit_run_duration_seconds",
			Help: "Wall time of the audit run",
		},
		[]string{"vdom"},
	)
	r.info = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "policy_audit_info",
			Help: "Build information of the audit tool",
		},
		[]string{"version"},
	)

	for _, c := range []prometheus.Collector{r.policies, r.findings, r.lastRun, r.durationSecs, r.info} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	r.info.WithLabelValues(defaults.Version).Set(1)
	return r, nil
}

// Observe records the summary of rep and the run duration.
func (r *Recorder) Observe(rep *report.Report, elapsed time.Duration) {
	vdom := rep.Meta.VDOM
	r.policies.WithLabelValues(vdom).Set(float64(rep.Summary.Total))
	r.findings.WithLabelValues(vdom, FindingWithTraffic).Set(float64(rep.Summary.WithTraffic))
	r.findings.WithLabelValues(vdom, FindingNoTraffic).Set(float64(rep.Summary.NoTraffic))
	r.findings.WithLabelValues(vdom, FindingPermissive).Set(float64(rep.Summary.Permissive))
	r.lastRun.WithLabelValues(vdom).Set(float64(rep.Meta.Generated.Unix()))
	r.durationSecs.WithLabelValues(vdom).Set(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Encode writes every metric family in the text exposition format.
func (r *Recorder) Encode(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
