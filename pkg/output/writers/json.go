package writers

import (
	"io"
	"strings"
	"sync"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/jsonutil"
	"github.com/policyaudit/policyaudit/pkg/policy"
	"github.com/policyaudit/policyaudit/pkg/report"
)

// JSONWriter writes an audit report as a single JSON document.
// Absent values are encoded as null rather than the display sentinel.
type JSONWriter struct {
	w    io.Writer
	mu   sync.Mutex
	opts JSONOptions
}

// JSONOptions configures the JSON writer behavior.
type JSONOptions struct {
	// Pretty enables indented JSON output.
	Pretty bool

	// IndentSize sets the number of spaces for indentation (default 2).
	IndentSize int
}

// NewJSONWriter creates a JSON writer that writes to w.
func NewJSONWriter(w io.Writer, opts JSONOptions) *JSONWriter {
	if opts.IndentSize == 0 {
		opts.IndentSize = 2
	}
	return &JSONWriter{w: w, opts: opts}
}

type jsonDocument struct {
	Meta     report.Meta    `json:"meta"`
	Summary  report.Summary `json:"summary"`
	Sections []jsonSection  `json:"sections"`
	Policies []jsonPolicy   `json:"policies"`
}

type jsonSection struct {
	ID       report.SectionID `json:"id"`
	Title    string           `json:"title"`
	Policies []int            `json:"policies"`
}

type jsonPolicy struct {
	PolicyID       int      `json:"policy_id"`
	Name           *string  `json:"policy_name"`
	Status         *string  `json:"status"`
	Action         *string  `json:"action"`
	NAT            *string  `json:"nat"`
	Schedule       *string  `json:"schedule"`
	SrcIntf        *string  `json:"srcintf"`
	DstIntf        *string  `json:"dstintf"`
	SrcAddr        *string  `json:"srcaddr"`
	DstAddr        *string  `json:"dstaddr"`
	Services       *string  `json:"services"`
	Bytes          int64    `json:"bytes"`
	Packets        int64    `json:"packets"`
	FirstUsed      *string  `json:"first_used"`
	LastUsed       *string  `json:"last_used"`
	HasTraffic     bool     `json:"has_traffic"`
	IsPermissive   bool     `json:"is_permissive"`
	WildcardFields []string `json:"wildcard_fields,omitempty"`
}

func nullableText(t policy.Text) *string {
	s, ok := t.Value()
	if !ok {
		return nil
	}
	return &s
}

func nullableTime(ts policy.Timestamp) *string {
	if !ts.Valid() {
		return nil
	}
	s := ts.String()
	return &s
}

func newJSONPolicy(c classify.Classified) jsonPolicy {
	return jsonPolicy{
		PolicyID:       c.PolicyID,
		Name:           nullableText(c.Name),
		Status:         nullableText(c.Status),
		Action:         nullableText(c.Action),
		NAT:            nullableText(c.NAT),
		Schedule:       nullableText(c.Schedule),
		SrcIntf:        nullableText(c.SourceInterfaces),
		DstIntf:        nullableText(c.DestInterfaces),
		SrcAddr:        nullableText(c.SourceAddresses),
		DstAddr:        nullableText(c.DestAddresses),
		Services:       nullableText(c.Services),
		Bytes:          c.Bytes,
		Packets:        c.Packets,
		FirstUsed:      nullableTime(c.FirstUsed),
		LastUsed:       nullableTime(c.LastUsed),
		HasTraffic:     c.Finding.HasTraffic,
		IsPermissive:   c.Finding.IsPermissive,
		WildcardFields: classify.WildcardFields(c.UnifiedRecord),
	}
}

// Write encodes r. Policies are listed once each, ordered by id; sections
// reference them by id.
func (jw *JSONWriter) Write(r *report.Report) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	doc := jsonDocument{
		Meta:     r.Meta,
		Summary:  r.Summary,
		Policies: []jsonPolicy{},
	}
	seen := make(map[int]bool)
	var all []classify.Classified
	for _, s := range r.Sections() {
		js := jsonSection{ID: s.ID, Title: s.Title, Policies: make([]int, 0, s.Len())}
		for _, c := range s.Records {
			js.Policies = append(js.Policies, c.PolicyID)
			if !seen[c.PolicyID] {
				seen[c.PolicyID] = true
				all = append(all, c)
			}
		}
		doc.Sections = append(doc.Sections, js)
	}
	sortClassified(all)
	for _, c := range all {
		doc.Policies = append(doc.Policies, newJSONPolicy(c))
	}

	var (
		data []byte
		err  error
	)
	if jw.opts.Pretty {
		data, err = jsonutil.MarshalIndent(doc, "", strings.Repeat(" ", jw.opts.IndentSize))
	} else {
		data, err = jsonutil.Marshal(doc)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = jw.w.Write(data)
	return err
}
