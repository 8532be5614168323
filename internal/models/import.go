package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportMode controls how a schedule import treats the target project
type ImportMode string

const (
	ImportModeCreate         ImportMode = "create"
	ImportModeReplaceProject ImportMode = "replace_project"
)

// DefaultImportTimezone is used when neither the item nor the options name a zone
const DefaultImportTimezone = "Asia/Singapore"

// ScheduleItem is one class or time block to become a Todoist task. Start
// and end times without an offset are read in the item's timezone, falling
// back to the batch default.
type ScheduleItem struct {
	Title           string         `json:"title" validate:"required,max=500"`
	Description     *string        `json:"description,omitempty"`
	ProjectName     *string        `json:"project_name,omitempty"`
	SectionName     *string        `json:"section_name,omitempty"`
	Labels          []string       `json:"labels,omitempty" validate:"dive,required"`
	Priority        int            `json:"priority,omitempty" validate:"omitempty,min=1,max=4"`
	DueString       *string        `json:"due_string,omitempty"`
	StartDatetime   *LocalDateTime `json:"start_datetime,omitempty"`
	EndDatetime     *LocalDateTime `json:"end_datetime,omitempty"`
	Timezone        *string        `json:"timezone,omitempty" validate:"omitempty,timezone"`
	DurationMinutes *int           `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
}

// ImportOptions are batch-wide import settings
type ImportOptions struct {
	Mode               ImportMode `json:"mode,omitempty" validate:"omitempty,import_mode"`
	ReplaceProjectName *string    `json:"replace_project_name,omitempty"`
	DryRun             bool       `json:"dry_run,omitempty"`
	DefaultProjectName *string    `json:"default_project_name,omitempty"`
	DefaultLabels      []string   `json:"default_labels,omitempty" validate:"dive,required"`
	DefaultPriority    int        `json:"default_priority,omitempty" validate:"omitempty,min=1,max=4"`
	DefaultTimezone    string     `json:"default_timezone,omitempty" validate:"omitempty,timezone"`
	TitlePrefix        *string    `json:"title_prefix,omitempty"`
	TitleSuffix        *string    `json:"title_suffix,omitempty"`
}

// DefaultImportOptions returns the options used when a request carries none
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		Mode:            ImportModeCreate,
		DefaultPriority: 1,
		DefaultTimezone: DefaultImportTimezone,
	}
}

// ImportRequest is a batch of schedule items
type ImportRequest struct {
	Items   []ScheduleItem `json:"items" validate:"required,min=1,dive"`
	Options *ImportOptions `json:"options,omitempty"`
}

// CreatedTask describes one task created (or simulated) by an import
type CreatedTask struct {
	Index     int     `json:"index"`
	TaskID    string  `json:"task_id"`
	Content   string  `json:"content"`
	ProjectID *string `json:"project_id,omitempty"`
	DryRun    bool    `json:"dry_run"`
}

// ItemError reports an item that could not be imported
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// OperationFailure reports a supporting sub-operation that failed without
// failing its item, e.g. section creation or clearing an old task
type OperationFailure struct {
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Message   string `json:"message"`
}

// ImportResult is the outcome of an import batch
type ImportResult struct {
	Created  []CreatedTask      `json:"created"`
	Errors   []ItemError        `json:"errors"`
	Failures []OperationFailure `json:"failures"`
}

// Partial reports whether any item or sub-operation failed
func (r *ImportResult) Partial() bool {
	return len(r.Errors) > 0 || len(r.Failures) > 0
}

// ImportJobStatus is the lifecycle state of an asynchronous import
type ImportJobStatus string

const (
	ImportJobStatusQueued    ImportJobStatus = "queued"
	ImportJobStatusRunning   ImportJobStatus = "running"
	ImportJobStatusSucceeded ImportJobStatus = "succeeded"
	ImportJobStatusFailed    ImportJobStatus = "failed"
)

// ImportJob is the stored record of an asynchronous import
type ImportJob struct {
	ID        uuid.UUID       `json:"id"`
	Status    ImportJobStatus `json:"status"`
	Request   json.RawMessage `json:"request"`
	Result    *ImportResult   `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
