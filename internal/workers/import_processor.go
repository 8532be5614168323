package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/database"
	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/queue"
	"github.com/benvon/slotfinder/internal/services/todoist"
)

// Importer runs a schedule import
type Importer interface {
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
}

// ImportProcessor runs queued schedule imports
type ImportProcessor struct {
	importer Importer
	jobRepo  database.ImportJobRepositoryInterface
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(
	importer Importer,
	jobRepo database.ImportJobRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *ImportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportProcessor{
		importer: importer,
		jobRepo:  jobRepo,
		jobQueue: jobQueue,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessJob handles one delivery. Every path acks or nacks the message.
func (p *ImportProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.Type != queue.JobTypeScheduleImport {
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	record, err := p.jobRepo.GetByID(ctx, job.ImportJobID)
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			if nackErr := msg.Nack(false); nackErr != nil {
				p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
			}
			return fmt.Errorf("import job %s: %w", job.ImportJobID, err)
		}
		return p.retryOrFail(ctx, msg, job, err)
	}

	// A redelivered job that already finished must not create tasks twice.
	if record.Status == models.ImportJobStatusSucceeded {
		p.logger.Info("import_job_already_done", zap.String("import_job_id", record.ID.String()))
		return ack(msg)
	}

	var req models.ImportRequest
	if err := json.Unmarshal(record.Request, &req); err != nil {
		return p.fail(ctx, msg, job, fmt.Errorf("invalid stored request: %w", err))
	}

	if err := p.jobRepo.MarkRunning(ctx, record.ID); err != nil {
		return p.retryOrFail(ctx, msg, job, err)
	}
	p.logger.Info("import_job_started",
		zap.String("import_job_id", record.ID.String()),
		zap.Int("items", len(req.Items)),
		zap.Int("retry_count", job.RetryCount),
	)

	result, err := p.importer.Import(ctx, req)
	if err != nil {
		return p.retryOrFail(ctx, msg, job, err)
	}

	if err := p.jobRepo.MarkSucceeded(ctx, record.ID, result); err != nil {
		// The tasks exist now; redelivery would duplicate them.
		if ackErr := msg.Ack(); ackErr != nil {
			p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
		}
		return fmt.Errorf("failed to store import result: %w", err)
	}

	p.logger.Info("import_job_succeeded",
		zap.String("import_job_id", record.ID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("failures", len(result.Failures)),
	)
	return ack(msg)
}

// retryOrFail re-enqueues jobs whose failure came from an unavailable
// collaborator and dead-letters the rest. A scheduled retry is not an error.
func (p *ImportProcessor) retryOrFail(ctx context.Context, msg queue.MessageInterface, job *queue.Job, cause error) error {
	if !isRetryable(cause) || !job.CanRetry() || p.jobQueue == nil {
		return p.fail(ctx, msg, job, cause)
	}

	retry := *job
	retry.ScheduleRetry(p.now())

	if enqueueErr := p.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		p.logger.Error("import_job_requeue_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr),
		)
		return p.fail(ctx, msg, job, cause)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
	}

	p.logger.Warn("import_job_retry_scheduled",
		zap.String("import_job_id", job.ImportJobID.String()),
		zap.Int("retry_count", retry.RetryCount),
		zap.Duration("delay", retry.RetryDelay()),
		zap.Error(cause),
	)
	return nil
}

func (p *ImportProcessor) fail(ctx context.Context, msg queue.MessageInterface, job *queue.Job, cause error) error {
	if err := p.jobRepo.MarkFailed(ctx, job.ImportJobID, cause.Error()); err != nil && !errors.Is(err, database.ErrJobNotFound) {
		p.logger.Error("import_job_mark_failed_failed",
			zap.String("import_job_id", job.ImportJobID.String()),
			zap.Error(err),
		)
	}
	if nackErr := msg.Nack(false); nackErr != nil {
		p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	p.logger.Error("import_job_failed",
		zap.String("import_job_id", job.ImportJobID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(cause),
	)
	return fmt.Errorf("import job %s failed: %w", job.ImportJobID, cause)
}

func ack(msg queue.MessageInterface) error {
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// isRetryable covers Todoist outages, rate limits and timeouts.
func isRetryable(err error) bool {
	if todoist.IsUnavailable(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
