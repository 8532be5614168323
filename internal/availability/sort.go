package availability

import (
	"sort"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

// maxInstant stands in for "no due" so undated occurrences sort last
var maxInstant = time.Unix(1<<62, 0).UTC()

func sortKey(t models.Timing, loc *time.Location) (int, time.Time) {
	switch t.Kind {
	case models.TimingInstant:
		return 0, t.Instant
	case models.TimingDate:
		return 1, t.Date.Midnight(loc)
	default:
		return 2, maxInstant
	}
}

// Sort orders occurrences in place by (rank, instant): precise instants
// first, then date-only (at midnight in loc), then undated. Ties keep
// their input order.
func Sort(occs []models.Occurrence, loc *time.Location) {
	sort.SliceStable(occs, func(i, j int) bool {
		ri, ti := sortKey(occs[i].Timing, loc)
		rj, tj := sortKey(occs[j].Timing, loc)
		if ri != rj {
			return ri < rj
		}
		return ti.Before(tj)
	})
}
