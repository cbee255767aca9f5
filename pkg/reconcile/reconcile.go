// Package reconcile joins traffic statistics and policy configuration into a
// single record per policy id.
package reconcile

import (
	"sort"

	"github.com/policyaudit/policyaudit/pkg/policy"
)

// Merge performs a full outer join of stats and configs on PolicyID.
//
// Every id present in either input yields exactly one record, in ascending
// id order. Fields from a side without a matching record keep their zero
// value (0 counters, absent text and timestamps); fields from a present side
// are copied unchanged. Each input is expected to hold unique ids; if not,
// the last record for an id wins.
func Merge(stats []policy.StatRecord, configs []policy.ConfigRecord) []policy.UnifiedRecord {
	statByID := make(map[int]policy.StatRecord, len(stats))
	for _, s := range stats {
		statByID[s.PolicyID] = s
	}
	configByID := make(map[int]policy.ConfigRecord, len(configs))
	for _, c := range configs {
		configByID[c.PolicyID] = c
	}

	ids := make([]int, 0, len(statByID)+len(configByID))
	for id := range statByID {
		ids = append(ids, id)
	}
	for id := range configByID {
		if _, seen := statByID[id]; !seen {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	merged := make([]policy.UnifiedRecord, 0, len(ids))
	for _, id := range ids {
		c, ok := configByID[id]
		if !ok {
			c = policy.ConfigRecord{PolicyID: id}
		}
		s := statByID[id]
		merged = append(merged, policy.UnifiedRecord{
			ConfigRecord: c,
			Bytes:        s.Bytes,
			Packets:      s.Packets,
			FirstUsed:    s.FirstUsed,
			LastUsed:     s.LastUsed,
		})
	}
	return merged
}
