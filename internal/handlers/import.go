package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/database"
	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/queue"
	"github.com/benvon/slotfinder/internal/services/importer"
	"github.com/benvon/slotfinder/internal/validation"
)

// Importer creates Todoist tasks from schedule items
type Importer interface {
	Import(ctx context.Context, req models.ImportRequest) (*models.ImportResult, error)
}

var _ Importer = (*importer.Service)(nil)

// ImportHandler handles schedule imports and import job lookups
type ImportHandler struct {
	importer Importer
	jobRepo  database.ImportJobRepositoryInterface
	jobQueue queue.JobQueue
	logger   *zap.Logger
	now      func() time.Time
}

// ImportHandlerOption configures an ImportHandler
type ImportHandlerOption func(*ImportHandler)

// WithImportJobs enables asynchronous imports backed by a job store and queue
func WithImportJobs(jobRepo database.ImportJobRepositoryInterface, jobQueue queue.JobQueue) ImportHandlerOption {
	return func(h *ImportHandler) {
		h.jobRepo = jobRepo
		h.jobQueue = jobQueue
	}
}

// NewImportHandler creates a new import handler
func NewImportHandler(imp Importer, logger *zap.Logger, opts ...ImportHandlerOption) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ImportHandler{importer: imp, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers import routes on an /api/v1 subrouter
func (h *ImportHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/import", h.Import).Methods("POST")
	r.HandleFunc("/import/jobs/{id}", h.GetJob).Methods("GET")
}

// ImportAccepted is returned for an asynchronous import
type ImportAccepted struct {
	JobID  uuid.UUID              `json:"job_id"`
	Status models.ImportJobStatus `json:"status"`
}

func (h *ImportHandler) asyncEnabled() bool {
	return h.jobRepo != nil && h.jobQueue != nil
}

// Import handles POST /api/v1/import. With ?async=true the request is stored
// and queued, and 202 is returned with the job id.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	async := false
	if raw := r.URL.Query().Get("async"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "async must be true or false")
			return
		}
		async = v
	}

	var req models.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if async {
		h.enqueue(w, r, req)
		return
	}

	result, err := h.importer.Import(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *ImportHandler) enqueue(w http.ResponseWriter, r *http.Request, req models.ImportRequest) {
	if !h.asyncEnabled() {
		respondJSONError(w, http.StatusNotImplemented, "Not Implemented",
			"Asynchronous import requires DATABASE_URL and RABBITMQ_URL")
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	now := h.now().UTC()
	record := &models.ImportJob{
		ID:        uuid.New(),
		Status:    models.ImportJobStatusQueued,
		Request:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.jobRepo.Create(r.Context(), record); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if err := h.jobQueue.Enqueue(r.Context(), queue.NewImportJob(record.ID)); err != nil {
		msg := "failed to enqueue import job"
		if markErr := h.jobRepo.MarkFailed(r.Context(), record.ID, msg); markErr != nil {
			h.logger.Warn("import_job_mark_failed_failed",
				zap.String("import_job_id", record.ID.String()),
				zap.Error(markErr),
			)
		}
		h.logger.Error("import_job_enqueue_failed",
			zap.String("import_job_id", record.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Job queue unavailable")
		return
	}

	h.logger.Info("import_job_queued",
		zap.String("import_job_id", record.ID.String()),
		zap.Int("items", len(req.Items)),
	)
	respondJSON(w, http.StatusAccepted, ImportAccepted{JobID: record.ID, Status: record.Status})
}

// GetJob handles GET /api/v1/import/jobs/{id}
func (h *ImportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobRepo == nil {
		respondJSONError(w, http.StatusNotImplemented, "Not Implemented",
			"Asynchronous import requires DATABASE_URL and RABBITMQ_URL")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid job ID")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
