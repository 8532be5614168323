package availability

import (
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

// FilterOptions selects occurrences. Zero values mean "no constraint" except
// for IncludeWithoutDue and IncludeCompleted, which default to excluding.
type FilterOptions struct {
	// ProjectIDs restricts to these projects; empty keeps all
	ProjectIDs []string
	// Labels must all be present on an occurrence
	Labels []string
	// From and To bound the representative instant, inclusive
	From *time.Time
	To   *time.Time
	// IncludeWithoutDue keeps undated occurrences regardless of bounds
	IncludeWithoutDue bool
	// IncludeCompleted keeps occurrences whose task is completed
	IncludeCompleted bool
	// Limit caps the number retained; <= 0 is unlimited
	Limit int
	// Location resolves date-only timings to midnight
	Location *time.Location
}

// Filter applies the project, label, completion and range predicates in
// arrival order and stops once Limit occurrences are retained.
func Filter(occs []models.Occurrence, opts FilterOptions) []models.Occurrence {
	projects := make(map[string]struct{}, len(opts.ProjectIDs))
	for _, id := range opts.ProjectIDs {
		projects[id] = struct{}{}
	}

	var out []models.Occurrence
	for _, occ := range occs {
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		if len(projects) > 0 {
			if _, ok := projects[occ.ProjectID]; !ok {
				continue
			}
		}
		if !occ.Labels.HasAll(opts.Labels) {
			continue
		}
		if occ.Raw.IsCompleted && !opts.IncludeCompleted {
			continue
		}
		if !inRange(occ.Timing, opts) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

func inRange(timing models.Timing, opts FilterOptions) bool {
	at, ok := timing.Representative(opts.Location)
	if !ok {
		return opts.IncludeWithoutDue
	}
	if opts.From != nil && at.Before(*opts.From) {
		return false
	}
	if opts.To != nil && at.After(*opts.To) {
		return false
	}
	return true
}
