package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/schedule"
	"github.com/benvon/slotfinder/internal/validation"
)

// ScheduleService answers task queries and free-slot searches
type ScheduleService interface {
	Query(ctx context.Context, req schedule.QueryRequest) (*schedule.QueryResult, error)
	FreeSlots(ctx context.Context, req schedule.FreeSlotsRequest) (*schedule.FreeSlotsResult, error)
	Location(name string) (*time.Location, error)
}

var _ ScheduleService = (*schedule.Service)(nil)

// ScheduleHandler handles task query and free-slot requests
type ScheduleHandler struct {
	service ScheduleService
	logger  *zap.Logger
	now     func() time.Time
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service ScheduleService, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{service: service, logger: logger, now: time.Now}
}

// RegisterRoutes registers schedule routes on an /api/v1 subrouter
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/tasks/query", h.QueryTasks).Methods("POST")
	r.HandleFunc("/free-slots", h.FreeSlots).Methods("POST")
}

// QueryTaskBody is the JSON body of a task query
type QueryTaskBody struct {
	ProjectNames      []string `json:"project_names,omitempty"`
	LabelFilters      []string `json:"label_filters,omitempty"`
	DateFrom          string   `json:"date_from,omitempty" validate:"omitempty,date_or_timestamp"`
	DateTo            string   `json:"date_to,omitempty" validate:"omitempty,date_or_timestamp"`
	IncludeWithoutDue bool     `json:"include_without_due,omitempty"`
	IncludeCompleted  bool     `json:"include_completed,omitempty"`
	Limit             int      `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
	Timezone          string   `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// FreeSlotsBody is the JSON body of a free-slot search. A zero
// min_slot_minutes means the server default.
type FreeSlotsBody struct {
	ProjectNames   []string `json:"project_names,omitempty"`
	LabelFilters   []string `json:"label_filters,omitempty"`
	DateFrom       string   `json:"date_from" validate:"required,civil_date"`
	DateTo         string   `json:"date_to" validate:"required,civil_date"`
	WorkdayStart   string   `json:"workday_start,omitempty" validate:"omitempty,hhmm"`
	WorkdayEnd     string   `json:"workday_end,omitempty" validate:"omitempty,hhmm"`
	MinSlotMinutes int      `json:"min_slot_minutes,omitempty" validate:"omitempty,min=1"`
	Timezone       string   `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// QueryTasks handles POST /api/v1/tasks/query
func (h *ScheduleHandler) QueryTasks(w http.ResponseWriter, r *http.Request) {
	var body QueryTaskBody
	if err := decodeJSON(r, &body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Struct(body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	loc, err := h.service.Location(body.Timezone)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	from, err := validation.ParseDateBound(body.DateFrom, loc, false)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("date_from: %v", err))
		return
	}
	to, err := validation.ParseDateBound(body.DateTo, loc, true)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("date_to: %v", err))
		return
	}

	result, err := h.service.Query(r.Context(), schedule.QueryRequest{
		ProjectNames:      validation.SanitizeNames(body.ProjectNames),
		LabelFilters:      validation.SanitizeNames(body.LabelFilters),
		DateFrom:          from,
		DateTo:            to,
		IncludeWithoutDue: body.IncludeWithoutDue,
		IncludeCompleted:  body.IncludeCompleted,
		Limit:             body.Limit,
		Timezone:          body.Timezone,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// FreeSlots handles POST /api/v1/free-slots. With ?format=ics the slots are
// returned as an iCalendar feed instead of the JSON envelope.
func (h *ScheduleHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "ics" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "format must be json or ics")
		return
	}

	var body FreeSlotsBody
	if err := decodeJSON(r, &body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.Struct(body); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	// Both parse; the validator already checked the format.
	dateFrom, _ := models.ParseDate(body.DateFrom)
	dateTo, _ := models.ParseDate(body.DateTo)

	result, err := h.service.FreeSlots(r.Context(), schedule.FreeSlotsRequest{
		ProjectNames:   validation.SanitizeNames(body.ProjectNames),
		LabelFilters:   validation.SanitizeNames(body.LabelFilters),
		DateFrom:       dateFrom,
		DateTo:         dateTo,
		WorkdayStart:   body.WorkdayStart,
		WorkdayEnd:     body.WorkdayEnd,
		MinSlotMinutes: body.MinSlotMinutes,
		Timezone:       body.Timezone,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if format == "ics" {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="free-slots.ics"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(result.Calendar(h.now()))); err != nil {
			h.logger.Warn("ics_write_failed", zap.Error(err))
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}
