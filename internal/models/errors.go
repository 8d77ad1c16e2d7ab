package models

import "errors"

// Failure taxonomy shared by the ledger, reward and HTTP layers. Callers wrap
// these with context; use errors.Is to classify.
var (
	// ErrCircuitBreakerActive is returned when a positive mint is blocked
	// because the global integrity index is below the halt threshold.
	ErrCircuitBreakerActive = errors.New("circuit breaker active")
	// ErrAccuracyBelowThreshold marks the named zero-reward outcome.
	ErrAccuracyBelowThreshold = errors.New("accuracy below threshold")
	// ErrNotFound is returned for unknown module or user ids.
	ErrNotFound = errors.New("module or user not found")
	// ErrInvalidInput is returned before any mutation for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Reason codes rendered to API clients.
const (
	CodeCircuitBreakerActive = "circuit_breaker_active"
	CodeAccuracyTooLow       = "accuracy_too_low"
	CodeNotFound             = "not_found"
	CodeInvalidInput         = "invalid_input"
	CodeInternal             = "internal"
)

// Code maps err onto its machine-readable reason code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrCircuitBreakerActive):
		return CodeCircuitBreakerActive
	case errors.Is(err, ErrAccuracyBelowThreshold):
		return CodeAccuracyTooLow
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}
