package writers

import (
	"time"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/policy"
	"github.com/policyaudit/policyaudit/pkg/report"
)

var testGenerated = time.Date(2026, 1, 21, 10, 7, 39, 0, time.FixedZone("CET", 3600))

func testRecord(id int, name string, bytes int64, src, dst, svc string) policy.UnifiedRecord {
	r := policy.UnifiedRecord{
		ConfigRecord: policy.ConfigRecord{
			PolicyID:         id,
			Name:             policy.Known(name),
			Status:           policy.Known("enable"),
			Action:           policy.Known("accept"),
			NAT:              policy.Known("disable"),
			Schedule:         policy.Known("always"),
			SourceInterfaces: policy.Known("port1"),
			DestInterfaces:   policy.Known("port2"),
			SourceAddresses:  policy.Known(src),
			DestAddresses:    policy.Known(dst),
			Services:         policy.Known(svc),
		},
		Bytes:   bytes,
		Packets: bytes / 100,
	}
	if bytes > 0 {
		r.FirstUsed = policy.At(testGenerated.Add(-48 * time.Hour))
		r.LastUsed = policy.At(testGenerated)
	}
	return r
}

func testRecords() []policy.UnifiedRecord {
	return []policy.UnifiedRecord{
		testRecord(0, "implicit", 5000, "all", "all", "ALL"),
		testRecord(3, "dns-out", 1234567, "lan", "wan", "DNS"),
		testRecord(5, "web-in", 0, "all", "dmz-web", "HTTPS"),
		testRecord(9, "legacy", 0, "lan", "wan", "SSH"),
		{ConfigRecord: policy.ConfigRecord{PolicyID: 12}},
	}
}

func testReport() *report.Report {
	return report.Build(classify.Classify(testRecords()), report.Meta{
		RunID:     "7d3c1c7e-8a8e-4f53-9a7b-1b0f0e6a5c11",
		Generated: testGenerated,
		VDOM:      "root",
	})
}

func emptyReport() *report.Report {
	return report.Build(nil, report.Meta{RunID: "empty-run", Generated: testGenerated})
}
