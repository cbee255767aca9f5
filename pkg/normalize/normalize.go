// Package normalize turns raw appliance API payloads into canonical policy
// records.
//
// Validation is defensive: a field of unexpected shape degrades to its
// documented default instead of aborting the run. The exceptions are the
// traffic counters, where a present but non-numeric value is an upstream
// contract violation and fails with ErrDataFormat. Records whose policy id
// cannot be read are dropped since they cannot be reconciled.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/policyaudit/policyaudit/pkg/jsonutil"
	"github.com/policyaudit/policyaudit/pkg/policy"
)

// Raw keys of the appliance documents.
const (
	keyPolicyID  = "policyid"
	keyBytes     = "bytes"
	keyPackets   = "packets"
	keyFirstUsed = "first_used"
	keyLastUsed  = "last_used"
	keyName      = "name"
	keyStatus    = "status"
	keyAction    = "action"
	keyNAT       = "nat"
	keySchedule  = "schedule"
	keySrcIntf   = "srcintf"
	keyDstIntf   = "dstintf"
	keySrcAddr   = "srcaddr"
	keyDstAddr   = "dstaddr"
	keyService   = "service"
)

// Options configures a Normalizer.
type Options struct {
	// Location renders first/last used timestamps. Nil means UTC.
	Location *time.Location

	// Logger receives notices about dropped or duplicate records.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Normalizer converts payloads into canonical record sets.
type Normalizer struct {
	loc    *time.Location
	logger *slog.Logger
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{loc: loc, logger: logger}
}

// LoadLocation resolves a time zone name. On failure it returns UTC along
// with the lookup error so the caller can report the fallback.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("time zone %q: %w", name, err)
	}
	return loc, nil
}

// Stats normalizes a traffic-statistics payload, sorted by policy id.
func (n *Normalizer) Stats(p Payload) ([]policy.StatRecord, error) {
	byID := make(map[int]policy.StatRecord, len(p.Results))
	for _, item := range p.Results {
		id, ok := n.policyID(item, "stats")
		if !ok {
			continue
		}

		bytes, err := counter(item, keyBytes, id)
		if err != nil {
			return nil, err
		}
		packets, err := counter(item, keyPackets, id)
		if err != nil {
			return nil, err
		}

		keep(byID, id, "stats", policy.StatRecord{
			PolicyID:  id,
			Bytes:     bytes,
			Packets:   packets,
			FirstUsed: n.timestamp(item[keyFirstUsed]),
			LastUsed:  n.timestamp(item[keyLastUsed]),
		}, n.logger)
	}
	return sorted(byID, func(r policy.StatRecord) int { return r.PolicyID }), nil
}

// Configs normalizes a policy-configuration payload, sorted by policy id.
// It never fails: every malformed field has a default.
func (n *Normalizer) Configs(p Payload) []policy.ConfigRecord {
	byID := make(map[int]policy.ConfigRecord, len(p.Results))
	for _, item := range p.Results {
		id, ok := n.policyID(item, "config")
		if !ok {
			continue
		}
		keep(byID, id, "config", policy.ConfigRecord{
			PolicyID:         id,
			Name:             toText(item[keyName]),
			Status:           toText(item[keyStatus]),
			Action:           toText(item[keyAction]),
			NAT:              toText(item[keyNAT]),
			Schedule:         toText(item[keySchedule]),
			SourceInterfaces: NameList(item[keySrcIntf]),
			DestInterfaces:   NameList(item[keyDstIntf]),
			SourceAddresses:  NameList(item[keySrcAddr]),
			DestAddresses:    NameList(item[keyDstAddr]),
			Services:         NameList(item[keyService]),
		}, n.logger)
	}
	return sorted(byID, func(r policy.ConfigRecord) int { return r.PolicyID })
}

func (n *Normalizer) policyID(item Item, source string) (int, bool) {
	v, present, err := toInt(item[keyPolicyID])
	if !present || err != nil || int64(int(v)) != v {
		n.logger.Debug("dropping record without usable policy id",
			slog.String("source", source),
			slog.String("policyid", string(item[keyPolicyID])))
		return 0, false
	}
	return int(v), true
}

// keep stores rec under id. Ids are unique per source; if the appliance
// repeats one, the later record wins.
func keep[T any](byID map[int]T, id int, source string, rec T, logger *slog.Logger) {
	if _, dup := byID[id]; dup {
		logger.Warn("duplicate policy id, keeping last record",
			slog.String("source", source), slog.Int("policy_id", id))
	}
	byID[id] = rec
}

func counter(item Item, key string, id int) (int64, error) {
	v, present, err := toInt(item[key])
	if !present {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: policy %d: %s = %s", ErrDataFormat, id, key, jsonutil.Raw(item[key]))
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: policy %d: %s is negative (%d)", ErrDataFormat, id, key, v)
	}
	return v, nil
}

// timestamp converts epoch seconds. Missing or unreadable values, and
// instants outside the four-digit year range, are absent.
func (n *Normalizer) timestamp(raw jsonutil.Raw) policy.Timestamp {
	v, present, err := toInt(raw)
	if !present || err != nil {
		return policy.Never()
	}
	t := time.Unix(v, 0).In(n.loc)
	if y := t.Year(); y < 1 || y > 9999 {
		return policy.Never()
	}
	return policy.At(t)
}

func sorted[T any](byID map[int]T, key func(T) int) []T {
	out := make([]T, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}
