package policy

import (
	"strconv"

	"github.com/policyaudit/policyaudit/pkg/defaults"
)

// Column names used by every tabular serialization.
const (
	ColPolicyID  = "policy_id"
	ColBytes     = "bytes"
	ColPackets   = "packets"
	ColFirstUsed = "first_used"
	ColLastUsed  = "last_used"
	ColName      = "policy_name"
	ColStatus    = "status"
	ColAction    = "action"
	ColNAT       = "nat"
	ColSchedule  = "schedule"
	ColSrcIntf   = "srcintf"
	ColDstIntf   = "dstintf"
	ColSrcAddr   = "srcaddr"
	ColDstAddr   = "dstaddr"
	ColServices  = "services"
)

// StatsHeaders is the canonical column order of a statistics table.
var StatsHeaders = []string{ColPolicyID, ColBytes, ColPackets, ColFirstUsed, ColLastUsed}

// ConfigHeaders is the canonical column order of a configuration table.
var ConfigHeaders = []string{
	ColPolicyID, ColName, ColStatus, ColAction, ColNAT, ColSchedule,
	ColSrcIntf, ColDstIntf, ColSrcAddr, ColDstAddr, ColServices,
}

// UnifiedHeaders is the configuration columns followed by the statistics.
var UnifiedHeaders = append(append([]string{}, ConfigHeaders...), ColBytes, ColPackets, ColFirstUsed, ColLastUsed)

// Row is a record that can be rendered column by column.
type Row interface {
	Field(col string) string
}

// Rows adapts a typed slice for tabular writers.
func Rows[T Row](records []T) []Row {
	out := make([]Row, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// Field implements Row. Unknown columns render empty.
func (s StatRecord) Field(col string) string {
	switch col {
	case ColPolicyID:
		return strconv.Itoa(s.PolicyID)
	case ColBytes:
		return strconv.FormatInt(s.Bytes, 10)
	case ColPackets:
		return strconv.FormatInt(s.Packets, 10)
	case ColFirstUsed:
		return s.FirstUsed.String()
	case ColLastUsed:
		return s.LastUsed.String()
	}
	return ""
}

// Field implements Row. Unknown columns render empty.
func (c ConfigRecord) Field(col string) string {
	switch col {
	case ColPolicyID:
		return strconv.Itoa(c.PolicyID)
	case ColName:
		return c.Name.String()
	case ColStatus:
		return c.Status.String()
	case ColAction:
		return c.Action.String()
	case ColNAT:
		return c.NAT.String()
	case ColSchedule:
		return c.Schedule.String()
	case ColSrcIntf:
		return c.SourceInterfaces.String()
	case ColDstIntf:
		return c.DestInterfaces.String()
	case ColSrcAddr:
		return c.SourceAddresses.String()
	case ColDstAddr:
		return c.DestAddresses.String()
	case ColServices:
		return c.Services.String()
	}
	return ""
}

// Field implements Row. Unknown columns render empty.
func (u UnifiedRecord) Field(col string) string {
	switch col {
	case ColBytes, ColPackets, ColFirstUsed, ColLastUsed:
		return u.Stats().Field(col)
	}
	return u.ConfigRecord.Field(col)
}

// Sentinel reports whether s is the rendered placeholder for a missing value.
func Sentinel(s string) bool { return s == defaults.Unknown }
