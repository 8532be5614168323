package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/slotfinder/internal/models"
)

// ErrJobNotFound is returned when no import job has the requested id
var ErrJobNotFound = errors.New("import job not found")

// ImportJobRepository handles import job records
type ImportJobRepository struct {
	db *DB
}

// NewImportJobRepository creates a new import job repository
func NewImportJobRepository(db *DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create stores a new queued job. ID is generated when unset.
func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.ImportJobStatusQueued
	}

	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO import_jobs (id, status, request, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
		RETURNING created_at, updated_at
	`, job.ID, string(job.Status), string(job.Request), now).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// GetByID loads a job
func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	job := &models.ImportJob{}
	var (
		status     string
		request    []byte
		resultJSON []byte
		errMsg     sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, request, result, error, attempts, created_at, updated_at
		FROM import_jobs
		WHERE id = $1
	`, id).Scan(&job.ID, &status, &request, &resultJSON, &errMsg, &job.Attempts, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	job.Status = models.ImportJobStatus(status)
	job.Request = json.RawMessage(request)
	if job.Result, err = decodeResult(resultJSON); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = &errMsg.String
	}
	return job, nil
}

// MarkRunning moves a job to running and counts the attempt
func (r *ImportJobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, `
		UPDATE import_jobs
		SET status = $2, attempts = attempts + 1, error = NULL, updated_at = $3
		WHERE id = $1
	`, id, string(models.ImportJobStatusRunning), time.Now())
}

// MarkSucceeded stores the import result
func (r *ImportJobRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, result *models.ImportResult) error {
	resultJSON, err := encodeResult(result)
	if err != nil {
		return err
	}
	var param any
	if resultJSON != nil {
		param = string(resultJSON)
	}
	return r.update(ctx, `
		UPDATE import_jobs
		SET status = $2, result = $3, error = NULL, updated_at = $4
		WHERE id = $1
	`, id, string(models.ImportJobStatusSucceeded), param, time.Now())
}

// MarkFailed records the failure message
func (r *ImportJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.update(ctx, `
		UPDATE import_jobs
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`, id, string(models.ImportJobStatusFailed), message, time.Now())
}

func (r *ImportJobRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func encodeResult(result *models.ImportResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import result: %w", err)
	}
	return b, nil
}

func decodeResult(raw []byte) (*models.ImportResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	result := &models.ImportResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import result: %w", err)
	}
	return result, nil
}
