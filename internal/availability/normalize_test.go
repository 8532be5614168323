package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

func strPtr(s string) *string { return &s }

func TestParseDue(t *testing.T) {
	t.Parallel()

	sgt := time.FixedZone("SGT", 8*3600)

	tests := []struct {
		name          string
		due           *models.TaskDue
		wantKind      models.TimingKind
		wantInstant   time.Time
		wantDate      models.Date
		wantMalformed bool
	}{
		{
			name:     "nil due",
			due:      nil,
			wantKind: models.TimingNone,
		},
		{
			name:        "utc marker",
			due:         &models.TaskDue{Date: "2025-11-18", Datetime: strPtr("2025-11-18T09:00:00Z")},
			wantKind:    models.TimingInstant,
			wantInstant: time.Date(2025, 11, 18, 9, 0, 0, 0, time.UTC),
		},
		{
			name:        "fractional seconds with utc marker",
			due:         &models.TaskDue{Datetime: strPtr("2016-09-01T12:00:00.000000Z")},
			wantKind:    models.TimingInstant,
			wantInstant: time.Date(2016, 9, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:        "explicit offset",
			due:         &models.TaskDue{Datetime: strPtr("2025-11-18T09:00:00+08:00")},
			wantKind:    models.TimingInstant,
			wantInstant: time.Date(2025, 11, 18, 1, 0, 0, 0, time.UTC),
		},
		{
			name:        "floating datetime read in caller zone",
			due:         &models.TaskDue{Datetime: strPtr("2025-11-18T09:00:00")},
			wantKind:    models.TimingInstant,
			wantInstant: time.Date(2025, 11, 18, 9, 0, 0, 0, sgt),
		},
		{
			name:     "date only",
			due:      &models.TaskDue{Date: "2025-11-18"},
			wantKind: models.TimingDate,
			wantDate: models.Date{Year: 2025, Month: time.November, Day: 18},
		},
		{
			name:          "malformed datetime does not fall back to date",
			due:           &models.TaskDue{Date: "2025-11-18", Datetime: strPtr("tomorrow-ish")},
			wantKind:      models.TimingNone,
			wantMalformed: true,
		},
		{
			name:          "malformed date",
			due:           &models.TaskDue{Date: "2025-13-40"},
			wantKind:      models.TimingNone,
			wantMalformed: true,
		},
		{
			name:     "empty due object",
			due:      &models.TaskDue{String: "someday"},
			wantKind: models.TimingNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDue(tt.due, sgt)
			if tt.wantMalformed {
				if !errors.Is(err, ErrMalformedDue) {
					t.Errorf("Expected ErrMalformedDue, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("Expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if tt.wantKind == models.TimingInstant && !got.Instant.Equal(tt.wantInstant) {
				t.Errorf("Expected instant %s, got %s", tt.wantInstant, got.Instant)
			}
			if tt.wantKind == models.TimingDate && got.Date != tt.wantDate {
				t.Errorf("Expected date %s, got %s", tt.wantDate, got.Date)
			}
			if tt.wantKind == models.TimingInstant && !got.Date.IsZero() {
				t.Errorf("Expected no civil date alongside an instant, got %s", got.Date)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *models.TaskDuration
		want *int
	}{
		{"missing", nil, nil},
		{"minutes", &models.TaskDuration{Amount: 90, Unit: "minute"}, intPtr(90)},
		{"days ignored", &models.TaskDuration{Amount: 1, Unit: "day"}, nil},
		{"zero amount", &models.TaskDuration{Amount: 0, Unit: "minute"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseDuration(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("Expected %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestNormalizeAll_MalformedRecordDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	section := "s1"
	recs := []models.TaskRecord{
		{ID: "1", Content: "ok", ProjectID: "p1", SectionID: &section, Labels: []string{"a", "a", "b"},
			Due: &models.TaskDue{Datetime: strPtr("2025-11-18T09:00:00Z")}},
		{ID: "2", Content: "bad", Due: &models.TaskDue{Datetime: strPtr("not a time")}},
		{ID: "3", Content: "undated"},
	}

	occs, stats := NormalizeAll(recs, time.UTC)
	if len(occs) != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", len(occs))
	}
	if stats.Total != 3 || stats.Malformed != 1 {
		t.Errorf("Expected total 3 malformed 1, got %+v", stats)
	}
	if len(stats.MalformedIDs) != 1 || stats.MalformedIDs[0] != "2" {
		t.Errorf("Expected malformed id 2, got %v", stats.MalformedIDs)
	}
	if occs[1].Timing.Kind != models.TimingNone {
		t.Errorf("Expected malformed occurrence to be undated, got %s", occs[1].Timing.Kind)
	}
	if occs[0].SectionID != "s1" || occs[0].ProjectID != "p1" {
		t.Errorf("Expected project and section to be carried, got %+v", occs[0])
	}
	if len(occs[0].Labels) != 2 {
		t.Errorf("Expected labels to be deduplicated, got %v", occs[0].Labels.Sorted())
	}
	if occs[0].Raw.Content != "ok" {
		t.Errorf("Expected raw content to pass through, got %q", occs[0].Raw.Content)
	}
}
