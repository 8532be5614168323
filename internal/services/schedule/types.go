package schedule

import (
	"time"

	"github.com/benvon/slotfinder/internal/models"
)

const (
	// DefaultQueryLimit applies when a query does not set a limit
	DefaultQueryLimit = 50
	// MaxQueryLimit is the largest limit a query may request
	MaxQueryLimit = 500
	// MaxFreeSlotsDays is the longest date range, inclusive, a free-slot
	// search may cover
	MaxFreeSlotsDays = 366
)

// QueryRequest selects and orders tasks
type QueryRequest struct {
	ProjectNames      []string
	LabelFilters      []string
	DateFrom          *time.Time
	DateTo            *time.Time
	IncludeWithoutDue bool
	IncludeCompleted  bool
	Limit             int
	Timezone          string
}

// DueSummary is the normalized timing of a task
type DueSummary struct {
	Kind     string       `json:"kind"`
	Datetime *time.Time   `json:"datetime,omitempty"`
	Date     *models.Date `json:"date,omitempty"`
}

// TaskSummary is a task enriched with directory names
type TaskSummary struct {
	ID              string      `json:"id"`
	Content         string      `json:"content"`
	Description     string      `json:"description,omitempty"`
	ProjectID       string      `json:"project_id"`
	ProjectName     string      `json:"project_name,omitempty"`
	SectionID       string      `json:"section_id,omitempty"`
	SectionName     string      `json:"section_name,omitempty"`
	Labels          []string    `json:"labels"`
	Priority        int         `json:"priority"`
	Due             *DueSummary `json:"due"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	IsCompleted     bool        `json:"is_completed"`
	URL             string      `json:"url,omitempty"`
}

// QueryResult is the ordered outcome of a query
type QueryResult struct {
	Tasks        []TaskSummary `json:"tasks"`
	Count        int           `json:"count"`
	MalformedDue int           `json:"malformed_due"`
	Timezone     string        `json:"timezone"`
}

// FreeSlotsRequest describes a free-slot search. Empty workday bounds and a
// zero MinSlotMinutes take the service defaults.
type FreeSlotsRequest struct {
	ProjectNames   []string
	LabelFilters   []string
	DateFrom       models.Date
	DateTo         models.Date
	WorkdayStart   string
	WorkdayEnd     string
	MinSlotMinutes int
	Timezone       string
}

// FreeSlotsResult lists free slots in chronological order
type FreeSlotsResult struct {
	Slots          []models.FreeSlot `json:"slots"`
	BusyCount      int               `json:"busy_count"`
	MalformedDue   int               `json:"malformed_due"`
	DateFrom       models.Date       `json:"date_from"`
	DateTo         models.Date       `json:"date_to"`
	WorkdayStart   string            `json:"workday_start"`
	WorkdayEnd     string            `json:"workday_end"`
	MinSlotMinutes int               `json:"min_slot_minutes"`
	Timezone       string            `json:"timezone"`
}
