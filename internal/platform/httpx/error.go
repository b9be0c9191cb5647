package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Error represents the canonical JSON error envelope returned by the API.
// The wire shape is `{"error": ...}` plus an optional `details` string,
// matching what the storefront frontend already consumes.
type Error struct {
	Code    string
	Details string
	Status  int
}

// NewError constructs a new Error with the provided parameters.
func NewError(code string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:   sanitize(code, 160),
		Status: status,
	}
}

// WithDetails attaches a human-readable detail string to the error payload.
func (e Error) WithDetails(details string) Error {
	e.Details = sanitize(details, 512)
	return e
}

// WriteError writes the structured error as JSON to the provided response writer.
func WriteError(_ context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	payload := map[string]any{
		"error": err.Code,
	}
	if err.Details != "" {
		payload["details"] = err.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
