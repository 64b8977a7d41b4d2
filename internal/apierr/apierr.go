// Package apierr defines the error kinds surfaced to API callers and how
// they are written to the wire.
package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrNotFound     = errors.New("post not found")
	ErrValidation   = errors.New("invalid request")
	ErrStorage      = errors.New("storage error")
)

// ValidationError carries a specific machine-readable code for a rejected input.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation returns a ValidationError that matches ErrValidation.
func Validation(code, msg string) error {
	return &ValidationError{Code: code, Message: msg}
}

// Body is the JSON shape of every failed response.
type Body struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// Status maps err to an HTTP status and response body. Unknown errors are
// treated as storage failures and their detail is not exposed.
func Status(err error) (int, Body) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, Body{Code: ve.Code, Error: ve.Message}
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, Body{Code: "validation_error", Error: ErrValidation.Error()}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, Body{Code: "unauthorized", Error: ErrUnauthorized.Error()}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Body{Code: "not_found", Error: ErrNotFound.Error()}
	default:
		return http.StatusInternalServerError, Body{Code: "storage_error", Error: "internal error"}
	}
}

// Write sends err to the client as JSON.
func Write(w http.ResponseWriter, err error) {
	status, body := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}
