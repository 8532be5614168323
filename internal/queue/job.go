package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeScheduleImport runs a stored import job
	JobTypeScheduleImport JobType = "schedule_import"
)

const (
	// DefaultMaxRetries bounds redeliveries before a job is dead-lettered
	DefaultMaxRetries = 3

	baseRetryDelay = 5 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// Job is a queue message pointing at a persisted import job
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Type        JobType    `json:"type"`
	ImportJobID uuid.UUID  `json:"import_job_id"`
	NotBefore   *time.Time `json:"not_before,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// NewImportJob creates a schedule import message for a stored import job
func NewImportJob(importJobID uuid.UUID) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        JobTypeScheduleImport,
		ImportJobID: importJobID,
		CreatedAt:   time.Now(),
		MaxRetries:  DefaultMaxRetries,
	}
}

// ShouldProcess reports whether the job's NotBefore has passed
func (j *Job) ShouldProcess() bool {
	return j.NotBefore == nil || !time.Now().Before(*j.NotBefore)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// ScheduleRetry counts the attempt and delays the next one with
// exponential backoff
func (j *Job) ScheduleRetry(now time.Time) {
	j.RetryCount++
	at := now.Add(j.RetryDelay())
	j.NotBefore = &at
}

// RetryDelay is the wait before the next attempt: 5s doubled per prior
// retry, capped at five minutes
func (j *Job) RetryDelay() time.Duration {
	delay := baseRetryDelay
	for i := 1; i < j.RetryCount; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
