package handler

import (
	"net/http"

	"github.com/mcoot/relayview/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest      = apierr.CodeInvalidRequest
	CodeTourNotFound        = apierr.CodeTourNotFound
	CodePlayerNotFound      = apierr.CodePlayerNotFound
	CodeUnsupportedCurrency = apierr.CodeUnsupportedCurrency
	CodeInvalidAmount       = apierr.CodeInvalidAmount
	CodeInvalidGiftDest     = apierr.CodeInvalidGiftDest
	CodeUpstreamError       = apierr.CodeUpstreamError
	CodeInternalError       = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}
