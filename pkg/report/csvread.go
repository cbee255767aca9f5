package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/policyaudit/policyaudit/pkg/policy"
)

// ErrNoHeader is returned when a merged table has no header row.
var ErrNoHeader = errors.New("report: merged table has no header")

const utf8BOM = "\ufeff"

// FromMergedCSV reads a merged record table. Columns are matched by header
// name, in any order. Missing columns and sentinel cells become absent
// values; counters that do not parse become 0. Timestamps are RFC 3339 or
// the compact display form. Rows whose policy id does
// not parse are skipped.
func FromMergedCSV(r io.Reader) ([]policy.UnifiedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("report: read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		idx[strings.TrimSpace(h)] = i
	}
	if _, ok := idx[policy.ColPolicyID]; !ok {
		return nil, fmt.Errorf("report: merged table lacks %q column", policy.ColPolicyID)
	}

	var out []policy.UnifiedRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("report: line %d: %w", line, err)
		}

		cell := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		id, err := strconv.Atoi(cell(policy.ColPolicyID))
		if err != nil {
			continue
		}
		out = append(out, policy.UnifiedRecord{
			ConfigRecord: policy.ConfigRecord{
				PolicyID:         id,
				Name:             text(cell(policy.ColName)),
				Status:           text(cell(policy.ColStatus)),
				Action:           text(cell(policy.ColAction)),
				NAT:              text(cell(policy.ColNAT)),
				Schedule:         text(cell(policy.ColSchedule)),
				SourceInterfaces: text(cell(policy.ColSrcIntf)),
				DestInterfaces:   text(cell(policy.ColDstIntf)),
				SourceAddresses:  text(cell(policy.ColSrcAddr)),
				DestAddresses:    text(cell(policy.ColDstAddr)),
				Services:         text(cell(policy.ColServices)),
			},
			Bytes:     count(cell(policy.ColBytes)),
			Packets:   count(cell(policy.ColPackets)),
			FirstUsed: stamp(cell(policy.ColFirstUsed)),
			LastUsed:  stamp(cell(policy.ColLastUsed)),
		})
	}
	return out, nil
}

func text(s string) policy.Text {
	if policy.Sentinel(s) {
		return policy.Missing()
	}
	return policy.Known(s)
}

func count(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 9.2e18 {
		return int64(f)
	}
	return 0
}

func stamp(s string) policy.Timestamp {
	if s == "" || policy.Sentinel(s) {
		return policy.Never()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return policy.At(t)
	}
	// Hand-edited tables often carry the compact display form or drop the
	// offset; those read as wall-clock times in UTC.
	if t, err := time.Parse(DisplayLayout, DisplayTimeString(s)); err == nil {
		return policy.At(t)
	}
	return policy.Never()
}
