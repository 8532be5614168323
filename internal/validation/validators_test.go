package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

type windowInput struct {
	DateFrom     string `validate:"required,civil_date"`
	Since        string `validate:"omitempty,date_or_timestamp"`
	WorkdayStart string `validate:"omitempty,hhmm"`
	Timezone     string `validate:"omitempty,timezone"`
}

func TestStruct_CustomTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   windowInput
		wantErr string
	}{
		{
			name:  "valid",
			input: windowInput{DateFrom: "2025-11-17", Since: "2025-11-17T09:00:00+08:00", WorkdayStart: "08:00", Timezone: "Asia/Singapore"},
		},
		{
			name:  "date accepted for timestamp field",
			input: windowInput{DateFrom: "2025-11-17", Since: "2025-11-17"},
		},
		{
			name:    "missing date",
			input:   windowInput{},
			wantErr: "DateFrom is required",
		},
		{
			name:    "malformed date",
			input:   windowInput{DateFrom: "17/11/2025"},
			wantErr: "DateFrom must be YYYY-MM-DD",
		},
		{
			name:    "malformed timestamp",
			input:   windowInput{DateFrom: "2025-11-17", Since: "tomorrow"},
			wantErr: "Since must be YYYY-MM-DD or RFC 3339",
		},
		{
			name:    "malformed clock",
			input:   windowInput{DateFrom: "2025-11-17", WorkdayStart: "8am"},
			wantErr: "WorkdayStart must be HH:MM",
		},
		{
			name:    "unknown zone",
			input:   windowInput{DateFrom: "2025-11-17", Timezone: "Mars/Olympus"},
			wantErr: "Timezone must be an IANA timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Struct(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestStruct_ImportRequest(t *testing.T) {
	t.Parallel()

	priority := 7
	tests := []struct {
		name    string
		req     models.ImportRequest
		wantErr bool
	}{
		{
			name: "valid",
			req: models.ImportRequest{
				Items:   []models.ScheduleItem{{Title: "Lecture"}},
				Options: &models.ImportOptions{Mode: models.ImportModeReplaceProject},
			},
		},
		{
			name:    "no items",
			req:     models.ImportRequest{},
			wantErr: true,
		},
		{
			name:    "item without title",
			req:     models.ImportRequest{Items: []models.ScheduleItem{{}}},
			wantErr: true,
		},
		{
			name:    "priority out of range",
			req:     models.ImportRequest{Items: []models.ScheduleItem{{Title: "x", Priority: priority}}},
			wantErr: true,
		},
		{
			name: "unknown mode",
			req: models.ImportRequest{
				Items:   []models.ScheduleItem{{Title: "x"}},
				Options: &models.ImportOptions{Mode: "merge"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "  School  ", want: "School"},
		{input: "Week\x001", want: "Week1"},
		{input: "line\nbreak\ttab", want: "line\nbreak\ttab"},
		{input: "", want: ""},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q): Expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestSanitizeNames(t *testing.T) {
	t.Parallel()

	got := SanitizeNames([]string{" School ", "  ", "Home"})
	if len(got) != 2 || got[0] != "School" || got[1] != "Home" {
		t.Errorf("Expected [School Home], got %v", got)
	}
	if SanitizeNames(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestParseDateBound(t *testing.T) {
	t.Parallel()

	sgt, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		t.Fatalf("Failed to load zone: %v", err)
	}

	tests := []struct {
		name        string
		value       string
		endOfDay    bool
		want        *time.Time
		expectError bool
	}{
		{name: "empty", value: ""},
		{name: "date start", value: "2025-11-17", want: ptrTime(time.Date(2025, 11, 17, 0, 0, 0, 0, sgt))},
		{
			name:     "date end",
			value:    "2025-11-17",
			endOfDay: true,
			want:     ptrTime(time.Date(2025, 11, 18, 0, 0, 0, 0, sgt).Add(-time.Nanosecond)),
		},
		{
			name:     "timestamp ignores endOfDay",
			value:    "2025-11-17T09:00:00Z",
			endOfDay: true,
			want:     ptrTime(time.Date(2025, 11, 17, 9, 0, 0, 0, time.UTC)),
		},
		{name: "garbage", value: "next tuesday", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDateBound(tt.value, sgt, tt.endOfDay)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("Expected %v, got %v", *tt.want, *got)
			}
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
