package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/slotfinder/internal/availability"
	"github.com/benvon/slotfinder/internal/database"
	"github.com/benvon/slotfinder/internal/logger"
	"github.com/benvon/slotfinder/internal/services/schedule"
)

const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	return logger.SanitizeString(message, maxErrorMessageLength)
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON object from the request body
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// isClientError reports whether err was caused by the request content
func isClientError(err error) bool {
	return errors.Is(err, availability.ErrInvalidWorkWindowFormat) ||
		errors.Is(err, availability.ErrDegenerateWorkWindow) ||
		errors.Is(err, availability.ErrInvalidDateRange) ||
		errors.Is(err, schedule.ErrUnknownProject) ||
		errors.Is(err, schedule.ErrInvalidTimezone) ||
		errors.Is(err, schedule.ErrInvalidRequest)
}

// respondServiceError maps service errors onto HTTP statuses. Store failures
// are logged in full and reported without their upstream detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case isClientError(err):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, database.ErrJobNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Import job not found")
	case errors.Is(err, schedule.ErrTaskStoreUnavailable):
		log.Warn("task_store_unavailable",
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Task store unavailable")
	default:
		log.Error("request_failed",
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Request failed")
	}
}
