package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/relayview/internal/model"
	"github.com/mcoot/relayview/internal/services/checkout"
	"github.com/mcoot/relayview/internal/upstream"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeTourNotFound        = "TOUR_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidGiftDest     = "INVALID_GIFT_DEST"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	var amountErr *checkout.AmountError
	if errors.As(err, &amountErr) {
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInvalidAmount, amountErr.Message}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrTourNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTourNotFound, "Tournament not found"}}
	case errors.Is(err, model.ErrPlayerNotFound), errors.Is(err, model.ErrEmptyPlayerKey):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrUnsupportedCurrency):
		return &httpError{http.StatusBadRequest, APIError{CodeUnsupportedCurrency, "Currency is not supported"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInvalidAmount, "Invalid amount"}}
	case errors.Is(err, model.ErrInvalidGiftDest):
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeInvalidGiftDest, "Enter a valid username to gift"}}
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		return &httpError{http.StatusBadGateway, APIError{CodeUpstreamError, "Broadcast server request failed"}}
	}

	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
