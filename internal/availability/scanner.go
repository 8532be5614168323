package availability

import (
	"sort"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

// MergeIntervals sorts intervals by start and coalesces overlapping or
// touching ones. The input slice is not modified.
func MergeIntervals(intervals []models.BusyInterval) []models.BusyInterval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := append([]models.BusyInterval(nil), intervals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.BusyInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// clip keeps the intervals overlapping the window and trims them to it
func clip(intervals []models.BusyInterval, w models.WorkWindow) []models.BusyInterval {
	var out []models.BusyInterval
	for _, iv := range intervals {
		if !iv.End.After(w.Start) || !iv.Start.Before(w.End) {
			continue
		}
		c := iv
		if c.Start.Before(w.Start) {
			c.Start = w.Start
		}
		if c.End.After(w.End) {
			c.End = w.End
		}
		out = append(out, c)
	}
	return out
}

// FreeSlotsForDay returns the gaps of at least minSlot between the busy
// intervals inside one work window, in start order
func FreeSlotsForDay(busy []models.BusyInterval, w models.WorkWindow, minSlot time.Duration) []models.FreeSlot {
	if w.IsDegenerate() {
		return nil
	}

	var slots []models.FreeSlot
	emit := func(start, end time.Time) {
		if end.Sub(start) >= minSlot {
			slots = append(slots, models.FreeSlot{Start: start, End: end})
		}
	}

	cursor := w.Start
	for _, b := range MergeIntervals(clip(busy, w)) {
		if cursor.Before(b.Start) {
			emit(cursor, b.Start)
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(w.End) {
		emit(cursor, w.End)
	}
	return slots
}

// ScanDays walks every day from..to inclusive and collects free slots.
// A busy interval only counts against the day its start falls on in loc,
// so an interval running past midnight does not reduce the next day.
func ScanDays(busy []models.BusyInterval, from, to models.Date, hours WorkHours, minSlotMinutes int, loc *time.Location) []models.FreeSlot {
	if loc == nil {
		loc = time.UTC
	}
	minSlot := time.Duration(minSlotMinutes) * time.Minute

	byDay := make(map[models.Date][]models.BusyInterval)
	for _, iv := range busy {
		d := models.DateOf(iv.Start, loc)
		byDay[d] = append(byDay[d], iv)
	}

	var slots []models.FreeSlot
	for d := from; !d.After(to); d = d.AddDays(1) {
		slots = append(slots, FreeSlotsForDay(byDay[d], hours.Window(d, loc), minSlot)...)
	}
	return slots
}
