package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/defaults"
)

// SectionID identifies a report section.
type SectionID string

const (
	SectionWithTraffic SectionID = "with_traffic"
	SectionNoTraffic   SectionID = "no_traffic"
	SectionPermissive  SectionID = "permissive"
)

// Section is one named view over the classified records.
type Section struct {
	ID      SectionID             `json:"id"`
	Title   string                `json:"title"`
	Records []classify.Classified `json:"-"`
}

// Len returns the number of records in the section.
func (s Section) Len() int { return len(s.Records) }

// Summary holds the counts shown at the head of the report.
type Summary struct {
	Total       int `json:"total"`
	WithTraffic int `json:"with_traffic"`
	NoTraffic   int `json:"no_traffic"`
	Permissive  int `json:"permissive"`
}

// Meta describes the audit run a report belongs to.
type Meta struct {
	Title     string    `json:"title"`
	RunID     string    `json:"run_id"`
	Generated time.Time `json:"generated"`
	VDOM      string    `json:"vdom,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Report is the assembled audit report.
type Report struct {
	Meta        Meta
	Summary     Summary
	WithTraffic Section
	NoTraffic   Section
	Permissive  Section
}

// Sections returns the sections in presentation order.
func (r *Report) Sections() []Section {
	return []Section{r.WithTraffic, r.NoTraffic, r.Permissive}
}

// Build partitions records into sections and computes the summary. Missing
// meta fields are filled in: a default title, a fresh run id, and the
// current time.
func Build(records []classify.Classified, meta Meta) *Report {
	if meta.Title == "" {
		meta.Title = defaults.ReportTitle
	}
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.Generated.IsZero() {
		meta.Generated = time.Now()
	}

	r := &Report{
		Meta:        meta,
		WithTraffic: Section{ID: SectionWithTraffic, Title: "Policies with traffic"},
		NoTraffic:   Section{ID: SectionNoTraffic, Title: "Policies with no traffic"},
		Permissive:  Section{ID: SectionPermissive, Title: "Potentially permissive rules"},
	}

	for _, c := range records {
		if c.Finding.HasTraffic {
			r.WithTraffic.Records = append(r.WithTraffic.Records, c)
		} else {
			r.NoTraffic.Records = append(r.NoTraffic.Records, c)
		}
		if c.Finding.IsPermissive {
			r.Permissive.Records = append(r.Permissive.Records, c)
		}
	}
	for _, s := range []*Section{&r.WithTraffic, &r.NoTraffic, &r.Permissive} {
		byPolicyID(s.Records)
	}

	r.Summary = Summary{
		Total:       len(records),
		WithTraffic: r.WithTraffic.Len(),
		NoTraffic:   r.NoTraffic.Len(),
		Permissive:  r.Permissive.Len(),
	}
	return r
}

func byPolicyID(recs []classify.Classified) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PolicyID < recs[j].PolicyID })
}
