package availability

import (
	"testing"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

func TestSort(t *testing.T) {
	t.Parallel()

	nov17 := models.Date{Year: 2025, Month: time.November, Day: 17}
	nov18 := models.Date{Year: 2025, Month: time.November, Day: 18}

	occs := []models.Occurrence{
		undatedOcc("none-1"),
		dateOcc("date-18", nov18),
		instantOcc("late", at(20, 9, 0)),
		undatedOcc("none-2"),
		dateOcc("date-17", nov17),
		instantOcc("early", at(18, 9, 0)),
		instantOcc("early-tie", at(18, 9, 0)),
	}

	Sort(occs, time.UTC)

	want := []string{"early", "early-tie", "late", "date-17", "date-18", "none-1", "none-2"}
	if got := ids(occs); !equalIDs(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSort_InstantsPrecedeEarlierDates(t *testing.T) {
	t.Parallel()

	// A date-only occurrence on an earlier day still ranks after any instant.
	occs := []models.Occurrence{
		dateOcc("date", models.Date{Year: 2025, Month: time.November, Day: 1}),
		instantOcc("instant", at(30, 9, 0)),
	}
	Sort(occs, time.UTC)
	if occs[0].ID != "instant" {
		t.Errorf("Expected instant first, got %v", ids(occs))
	}
}

func TestBuildIntervals(t *testing.T) {
	t.Parallel()

	withDuration := instantOcc("timed", at(18, 9, 0))
	withDuration.DurationMinutes = intPtr(30)

	occs := []models.Occurrence{
		withDuration,
		instantOcc("default", at(18, 13, 0)),
		dateOcc("date", models.Date{Year: 2025, Month: time.November, Day: 18}),
		undatedOcc("none"),
	}

	got := BuildIntervals(occs)
	if len(got) != 2 {
		t.Fatalf("Expected 2 intervals, got %d", len(got))
	}
	if !got[0].End.Equal(at(18, 9, 30)) {
		t.Errorf("Expected explicit duration to end 09:30, got %s", got[0].End)
	}
	if !got[1].End.Equal(at(18, 14, 0)) {
		t.Errorf("Expected default duration to end 14:00, got %s", got[1].End)
	}
	for _, iv := range got {
		if !iv.End.After(iv.Start) {
			t.Errorf("Expected non-empty interval, got %+v", iv)
		}
	}
}
