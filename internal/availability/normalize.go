package availability

import (
	"fmt"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

// floatingLayout is a provider datetime with no offset; it is read in the
// caller's zone.
const floatingLayout = "2006-01-02T15:04:05"

// NormalizeStats summarizes a normalization batch
type NormalizeStats struct {
	Total        int
	Malformed    int
	MalformedIDs []string
}

// ParseDue decodes a due-representation into a Timing. A precise datetime
// wins over a bare date; a malformed value yields NoTiming and an error
// wrapping ErrMalformedDue.
func ParseDue(due *models.TaskDue, loc *time.Location) (models.Timing, error) {
	if due == nil {
		return models.NoTiming(), nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if due.Datetime != nil && *due.Datetime != "" {
		raw := *due.Datetime
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return models.InstantTiming(t), nil
		}
		if t, err := time.ParseInLocation(floatingLayout, raw, loc); err == nil {
			return models.InstantTiming(t), nil
		}
		return models.NoTiming(), fmt.Errorf("%w: datetime %q", ErrMalformedDue, raw)
	}

	if due.Date != "" {
		d, err := models.ParseDate(due.Date)
		if err != nil {
			return models.NoTiming(), fmt.Errorf("%w: date %q", ErrMalformedDue, due.Date)
		}
		return models.DateTiming(d), nil
	}

	return models.NoTiming(), nil
}

// ParseDuration returns the duration in minutes when the record carries a
// positive minute-based amount
func ParseDuration(d *models.TaskDuration) *int {
	if d == nil || d.Unit != models.DurationUnitMinute || d.Amount <= 0 {
		return nil
	}
	minutes := d.Amount
	return &minutes
}

// Normalize converts one task record into an Occurrence. It never fails: a
// malformed due value leaves the occurrence undated.
func Normalize(rec models.TaskRecord, loc *time.Location) models.Occurrence {
	occ, _ := normalize(rec, loc)
	return occ
}

func normalize(rec models.TaskRecord, loc *time.Location) (models.Occurrence, error) {
	timing, err := ParseDue(rec.Due, loc)

	occ := models.Occurrence{
		ID:              rec.ID,
		Timing:          timing,
		DurationMinutes: ParseDuration(rec.Duration),
		ProjectID:       rec.ProjectID,
		Labels:          models.NewLabelSet(rec.Labels...),
		Raw: models.RawFields{
			Content:     rec.Content,
			Description: rec.Description,
			Priority:    rec.Priority,
			IsCompleted: rec.IsCompleted,
			URL:         rec.URL,
		},
	}
	if rec.SectionID != nil {
		occ.SectionID = *rec.SectionID
	}
	return occ, err
}

// NormalizeAll normalizes a batch, counting malformed due values
func NormalizeAll(recs []models.TaskRecord, loc *time.Location) ([]models.Occurrence, NormalizeStats) {
	stats := NormalizeStats{Total: len(recs)}
	out := make([]models.Occurrence, 0, len(recs))
	for _, rec := range recs {
		occ, err := normalize(rec, loc)
		if err != nil {
			stats.Malformed++
			stats.MalformedIDs = append(stats.MalformedIDs, rec.ID)
		}
		out = append(out, occ)
	}
	return out, stats
}
