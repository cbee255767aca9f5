// Package policy defines the canonical firewall policy records shared by the
// audit pipeline: traffic statistics, policy configuration, and the unified
// record produced by joining the two on the policy id.
//
// Absent values are explicit. Text and Timestamp carry a validity bit and
// only render the defaults.Unknown sentinel when stringified, so callers can
// tell "missing upstream" apart from a literal value.
package policy

import (
	"time"

	"github.com/policyaudit/policyaudit/pkg/defaults"
)

// TimeLayout renders timestamps as ISO-8601 with seconds precision and a
// numeric offset, e.g. 2026-01-21T10:07:39+01:00.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// Text is a string attribute that may be absent upstream.
type Text struct {
	s  string
	ok bool
}

// Known wraps a present value. An empty string is treated as absent.
func Known(s string) Text {
	if s == "" {
		return Text{}
	}
	return Text{s: s, ok: true}
}

// Missing returns an absent Text.
func Missing() Text { return Text{} }

// Value returns the underlying string and whether it was present.
func (t Text) Value() (string, bool) { return t.s, t.ok }

// Valid reports whether the value was present.
func (t Text) Valid() bool { return t.ok }

// String renders the value or the sentinel.
func (t Text) String() string {
	if !t.ok {
		return defaults.Unknown
	}
	return t.s
}

// Timestamp is an instant that may be absent upstream. The zone it was
// created in is kept for rendering.
type Timestamp struct {
	t  time.Time
	ok bool
}

// At wraps a present instant.
func At(t time.Time) Timestamp { return Timestamp{t: t, ok: true} }

// Never returns an absent Timestamp.
func Never() Timestamp { return Timestamp{} }

// Time returns the instant and whether it was present.
func (ts Timestamp) Time() (time.Time, bool) { return ts.t, ts.ok }

// Valid reports whether the value was present.
func (ts Timestamp) Valid() bool { return ts.ok }

// String renders the instant in TimeLayout or the sentinel.
func (ts Timestamp) String() string {
	if !ts.ok {
		return defaults.Unknown
	}
	return ts.t.Format(TimeLayout)
}

// StatRecord is one row of the traffic-statistics source.
type StatRecord struct {
	PolicyID  int
	Bytes     int64
	Packets   int64
	FirstUsed Timestamp
	LastUsed  Timestamp
}

// ConfigRecord is one row of the policy-configuration source. The list
// fields hold comma-joined object names in upstream order.
type ConfigRecord struct {
	PolicyID         int
	Name             Text
	Status           Text
	Action           Text
	NAT              Text
	Schedule         Text
	SourceInterfaces Text
	DestInterfaces   Text
	SourceAddresses  Text
	DestAddresses    Text
	Services         Text
}

// UnifiedRecord is the outer join of a StatRecord and a ConfigRecord on
// PolicyID. Fields from a missing side keep their zero value, which renders
// as 0 or the sentinel.
type UnifiedRecord struct {
	ConfigRecord
	Bytes     int64
	Packets   int64
	FirstUsed Timestamp
	LastUsed  Timestamp
}

// Stats returns the statistics half of the record.
func (u UnifiedRecord) Stats() StatRecord {
	return StatRecord{
		PolicyID:  u.PolicyID,
		Bytes:     u.Bytes,
		Packets:   u.Packets,
		FirstUsed: u.FirstUsed,
		LastUsed:  u.LastUsed,
	}
}
