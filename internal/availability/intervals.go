package availability

import (
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

// DefaultBusyDuration applies to timed occurrences without a duration
const DefaultBusyDuration = 60 * time.Minute

// BuildIntervals maps each instant-timed occurrence to a busy interval.
// Date-only and undated occurrences contribute nothing.
func BuildIntervals(occs []models.Occurrence) []models.BusyInterval {
	out := make([]models.BusyInterval, 0, len(occs))
	for _, occ := range occs {
		if occ.Timing.Kind != models.TimingInstant {
			continue
		}
		d := DefaultBusyDuration
		if occ.DurationMinutes != nil && *occ.DurationMinutes > 0 {
			d = time.Duration(*occ.DurationMinutes) * time.Minute
		}
		start := occ.Timing.Instant
		out = append(out, models.BusyInterval{Start: start, End: start.Add(d)})
	}
	return out
}
