package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// WIRE FORMAT:
// The API has three response shapes, used consistently everywhere:
//
//	201 Created   → {"success": true, "data": <record>}
//	200 OK (GET)  → {"data": <records or aggregate>}
//	4xx/5xx       → {"error": "<human-readable>", "details": "<machine type>"}
//
// The frontend only ever inspects "error" for display and "data" for
// content, so keeping the envelope stable matters more than what's in it.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/ghost-atlas/internal/apperror"
)

// errorResponse is the standard error envelope for all API endpoints.
type errorResponse struct {
	Error   string `json:"error"`             // Human-readable description, safe to render
	Details string `json:"details,omitempty"` // Machine-readable error type (e.g. "validation_error")
}

// dataResponse wraps successful GET payloads.
type dataResponse struct {
	Data any `json:"data"`
}

// createdResponse wraps successful creations (201).
type createdResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must go out before the body — once Encode writes,
// the headers are committed.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// This is the single place domain errors (from the service layer) get
// translated to HTTP. The service returns apperror.ErrValidation,
// apperror.ErrUnavailable, etc. — never status codes. errors.Is walks
// the whole wrap chain, so `fmt.Errorf("...: %w", apperror.X(...))`
// still maps correctly.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnavailable):
			status = http.StatusInternalServerError
			errorType = "database_error"
		}

		writeJSON(w, status, errorResponse{
			Error:   appErr.Message,
			Details: errorType,
		})
		return
	}

	// Unknown error: generic 500. The raw message might contain SQL or
	// file paths, so it never reaches the client.
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "An internal error occurred",
		Details: "internal_error",
	})
}
