package writers

import (
	"sort"
	"strings"

	"github.com/policyaudit/policyaudit/pkg/classify"
)

// Finding notes shown next to flagged policies.
const (
	NoteNoTraffic  = "No traffic observed in current counters."
	NotePermissive = "Potentially permissive - requires administrator analysis."
)

// findingText joins the notes that apply to c.
func findingText(c classify.Classified) string {
	var notes []string
	if !c.Finding.HasTraffic {
		notes = append(notes, NoteNoTraffic)
	}
	if c.Finding.IsPermissive {
		notes = append(notes, NotePermissive)
	}
	return strings.Join(notes, " ")
}

func sortClassified(recs []classify.Classified) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PolicyID < recs[j].PolicyID })
}
