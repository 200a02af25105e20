package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/earthwork"
)

// Error codes returned in the error envelope.
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidInput    = "invalid_input"
	CodeSchemaViolation = "schema_violation"
	CodeBodyTooLarge    = "body_too_large"
	CodeRateLimited     = "rate_limited"
	CodeNotFound        = "not_found"
	CodeComputation     = "computation_failed"
	CodeTimeout         = "timeout"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal_error"
)

// APIError is the JSON error envelope for every failed request.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// requestError is a failure detected before the engine runs: unreadable body,
// malformed JSON or a schema violation.
type requestError struct {
	status  int
	code    string
	message string
}

func (e *requestError) Error() string {
	return "api: " + e.message
}

func badRequest(code, message string) error {
	return &requestError{status: http.StatusBadRequest, code: code, message: message}
}

// classify maps an error to its HTTP status and envelope code.
func classify(err error) (int, string) {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return re.status, re.code
	case earthwork.IsInputError(err):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeUnavailable
	case earthwork.IsComputationError(err):
		return http.StatusInternalServerError, CodeComputation
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError logs err at a level matching its class and writes the envelope.
// Server-side failures never leak their message to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	reqID := middleware.GetReqID(r.Context())

	msg := err.Error()
	var re *requestError
	if errors.As(err, &re) {
		msg = re.message
	}
	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", fields...)
		switch code {
		case CodeTimeout:
			msg = "calculation did not finish before the request deadline"
		case CodeUnavailable:
			msg = "request was cancelled"
		default:
			msg = "internal error while computing volumes"
		}
	} else {
		zap.L().Debug("api: request rejected", fields...)
	}

	writeJSON(w, status, &APIError{
		Status:    status,
		Code:      code,
		Message:   msg,
		RequestID: reqID,
	})
}

// writeStatus writes an envelope for a status decided outside the engine.
func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, &APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
