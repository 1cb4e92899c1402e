package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"

	domainerrors "github.com/kibunbook/kibun-server/internal/errors"
)

// codeRateLimited is only produced by the HTTP layer.
const codeRateLimited = "RATE_LIMITED"

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	details := map[string]string{}
	for _, err := range errs {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return &APIError{
				status:  http.StatusGatewayTimeout,
				Code:    string(domainerrors.CodeInternal),
				Message: "request timed out",
			}
		}

		// Request validation failures from huma carry a location per field.
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			details[detail.Location] = detail.Message
		}
	}

	// Huma reports schema violations as 422; the API uses 400 for every
	// client input problem.
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	apiErr := &APIError{
		status:  status,
		Code:    statusToCode(status),
		Message: message,
	}
	if len(details) > 0 {
		apiErr.Details = details
	}
	return apiErr
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeCatalogUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// writeError writes an APIError outside of huma, e.g. from middleware.
func writeError(w http.ResponseWriter, status int, apiErr *APIError, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// apiError converts a service error into the StatusError huma writes.
// 5xx failures are logged.
func (s *Server) apiError(err error) error {
	apiErr, ok := newAPIError(http.StatusInternalServerError, "unexpected error occurred", err).(*APIError)
	if !ok {
		return err
	}
	if apiErr.status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", apiErr.Code, "error", err)
	}
	return apiErr
}
