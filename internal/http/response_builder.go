package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bizdash/internal/core"
	"bizdash/internal/log"
	"bizdash/internal/middleware/trace"
)

// JSONResponseBuilder builds a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a builder with a 200 status and no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded")
}

var validationErrors = []error{
	core.ErrEmptyClientID,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrDescriptionTooLong,
	core.ErrInvalidStatus,
	core.ErrInvalidKind,
	core.ErrInvalidTime,
	core.ErrInvalidTarget,
	core.ErrInvalidDate,
	core.ErrInvalidMonth,
	core.ErrInvalidDay,
	core.ErrInvalidAmount,
	errBadRequest,
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrClientMismatch):
		return http.StatusConflict
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err and writes the matching error response. Server errors
// are reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)
	body := ErrorBody{Error: err.Error(), RequestID: trace.RequestID(ctx)}
	if status >= http.StatusInternalServerError {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed", log.FieldError, err)
		body.Error = "internal error"
	} else {
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", log.FieldStatusCode, status, log.FieldError, err)
	}
	NewJSONResponse().Status(status).Body(body).Write(w)
}
