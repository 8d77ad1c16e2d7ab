// Package handlers holds the HTTP plumbing shared by the API packages:
// JSON bodies, query parsing and the mapping from error taxonomy to status.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteCode writes an error body with an explicit status and code.
func WriteCode(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

// WriteError classifies err and writes the matching status. Internal errors
// are logged and their text is not exposed.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := models.Code(err)
	status := StatusFor(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		msg = "internal error"
	}
	WriteCode(w, status, code, msg)
}

// StatusFor maps a reason code onto its HTTP status.
func StatusFor(code string) int {
	switch code {
	case models.CodeCircuitBreakerActive:
		return http.StatusServiceUnavailable
	case models.CodeAccuracyTooLow:
		return http.StatusUnprocessableEntity
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into v. Numbers decode as
// json.Number so integers in free-form maps stay exact.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", models.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidInput, key)
	}
	return n, nil
}
