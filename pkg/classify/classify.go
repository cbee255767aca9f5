// Package classify derives audit findings from unified policy records.
//
// Findings come from an ordered list of independent rules. Each rule is a
// pure predicate over one record plus the finding bit it sets, so new
// checks can be added without touching existing ones.
package classify

import (
	"strings"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/policy"
)

// Finding is the classification attached to one record.
type Finding struct {
	HasTraffic   bool     `json:"has_traffic"`
	IsPermissive bool     `json:"is_permissive"`
	Rules        []string `json:"rules,omitempty"`
}

// Classified is a unified record with its finding.
type Classified struct {
	policy.UnifiedRecord
	Finding Finding
}

// Rule is one named check.
type Rule struct {
	Name  string
	Match func(policy.UnifiedRecord) bool
	Set   func(*Finding)
}

// TrafficRule flags any policy whose byte counter is non-zero. A single
// packet already counts.
var TrafficRule = Rule{
	Name:  "traffic",
	Match: func(r policy.UnifiedRecord) bool { return r.Bytes > 0 },
	Set:   func(f *Finding) { f.HasTraffic = true },
}

// PermissiveRule flags eligible policies with a wildcard in the source
// addresses, destination addresses or services. Interfaces and schedule are
// not considered.
var PermissiveRule = Rule{
	Name:  "permissive",
	Match: Permissive,
	Set:   func(f *Finding) { f.IsPermissive = true },
}

// DefaultRules returns the audit rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{TrafficRule, PermissiveRule}
}

// Classify evaluates rules against every record and returns one Classified
// per input, in input order. With no rules given, DefaultRules is used.
func Classify(records []policy.UnifiedRecord, rules ...Rule) []Classified {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	out := make([]Classified, len(records))
	for i, r := range records {
		out[i] = Classified{UnifiedRecord: r, Finding: Evaluate(r, rules)}
	}
	return out
}

// Evaluate runs rules against a single record.
func Evaluate(r policy.UnifiedRecord, rules []Rule) Finding {
	var f Finding
	for _, rule := range rules {
		if rule.Match(r) {
			rule.Set(&f)
			f.Rules = append(f.Rules, rule.Name)
		}
	}
	return f
}

// Eligible reports whether a record may be evaluated for permissiveness.
// The reserved id 0 is the implicit system rule, not an administrator's.
func Eligible(r policy.UnifiedRecord) bool {
	return r.PolicyID != defaults.ImplicitPolicyID
}

// Permissive is the predicate behind PermissiveRule.
func Permissive(r policy.UnifiedRecord) bool {
	if !Eligible(r) {
		return false
	}
	return IsWildcard(r.SourceAddresses) || IsWildcard(r.DestAddresses) || IsWildcard(r.Services)
}

// WildcardFields names the columns of r that carry the wildcard token.
func WildcardFields(r policy.UnifiedRecord) []string {
	var cols []string
	for _, c := range []struct {
		name string
		v    policy.Text
	}{
		{policy.ColSrcAddr, r.SourceAddresses},
		{policy.ColDstAddr, r.DestAddresses},
		{policy.ColServices, r.Services},
	} {
		if IsWildcard(c.v) {
			cols = append(cols, c.name)
		}
	}
	return cols
}

// IsWildcard reports whether any comma-separated segment of v is the
// wildcard token, compared case-insensitively after trimming. Absent values
// never match.
func IsWildcard(v policy.Text) bool {
	s, ok := v.Value()
	if !ok {
		return false
	}
	return HasWildcardToken(s)
}

// HasWildcardToken is IsWildcard over rendered text, for records read back
// from a table where the sentinel stands for an absent value.
func HasWildcardToken(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || policy.Sentinel(s) {
		return false
	}
	for _, seg := range strings.Split(s, ",") {
		if strings.ToLower(strings.TrimSpace(seg)) == defaults.Wildcard {
			return true
		}
	}
	return false
}
