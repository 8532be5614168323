package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/benvon/slotfinder/internal/models"
)

// ImportJobRepositoryInterface defines the import job operations used by
// handlers and workers
type ImportJobRepositoryInterface interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID, result *models.ImportResult) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// Ensure concrete types implement the interfaces
var _ ImportJobRepositoryInterface = (*ImportJobRepository)(nil)
