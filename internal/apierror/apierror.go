// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so internal details
// (stack traces, DB errors) never reach the response body.
package apierror

import "github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// ShortageError lists every fabric that cannot cover a production run.
type ShortageError struct {
	Detail    string            `json:"detail"`
	Shortages []ledger.Shortage `json:"shortages"`
}

func NewShortage(err *ledger.ShortageError) *ShortageError {
	return &ShortageError{Detail: err.Error(), Shortages: err.Shortages}
}
