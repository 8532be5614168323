package models

// TaskRecord is a task as returned by the Todoist REST API
type TaskRecord struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	SectionID   *string       `json:"section_id"`
	ParentID    *string       `json:"parent_id"`
	Content     string        `json:"content"`
	Description string        `json:"description"`
	IsCompleted bool          `json:"is_completed"`
	Labels      []string      `json:"labels"`
	Priority    int           `json:"priority"`
	Due         *TaskDue      `json:"due"`
	Duration    *TaskDuration `json:"duration"`
	URL         string        `json:"url"`
	CreatedAt   string        `json:"created_at"`
}

// TaskDue is the provider's due-representation. Datetime is set for timed
// tasks (Date is then also populated by the provider); Date alone marks an
// all-day task.
type TaskDue struct {
	Date        string  `json:"date"`
	Datetime    *string `json:"datetime"`
	String      string  `json:"string"`
	Timezone    *string `json:"timezone"`
	IsRecurring bool    `json:"is_recurring"`
}

// TaskDuration is a structured amount+unit duration
type TaskDuration struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// DurationUnitMinute is the only unit the engine interprets
const DurationUnitMinute = "minute"

// Project is a Todoist project
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Section is a Todoist section inside a project
type Section struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// Label is a Todoist personal label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskDraft is the payload for creating a task. DueDatetime is RFC 3339 in
// the zone the caller chose; DueString is free text parsed by the provider.
type TaskDraft struct {
	Content      string   `json:"content"`
	Description  string   `json:"description,omitempty"`
	ProjectID    string   `json:"project_id,omitempty"`
	SectionID    string   `json:"section_id,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	Priority     int      `json:"priority,omitempty"`
	DueString    string   `json:"due_string,omitempty"`
	DueDatetime  string   `json:"due_datetime,omitempty"`
	Duration     int      `json:"duration,omitempty"`
	DurationUnit string   `json:"duration_unit,omitempty"`
}
