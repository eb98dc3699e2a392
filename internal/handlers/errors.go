package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smartfood/grocery-service/internal/middleware"
	"github.com/smartfood/grocery-service/internal/types"
)

// RequestIDKey is the gin context key holding the request correlation id.
const RequestIDKey = middleware.RequestIDKey

// statusClientClosedRequest is used when the caller went away mid-request.
const statusClientClosedRequest = 499

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

var statusByCode = map[string]int{
	types.ErrCodeNotFound:           http.StatusNotFound,
	types.ErrCodeNoMatchingResult:   http.StatusNotFound,
	types.ErrCodePreferencesMissing: http.StatusConflict,
	types.ErrCodeInvalidConstraint:  http.StatusBadRequest,
	types.ErrCodeConflict:           http.StatusConflict,
	types.ErrCodeListEmpty:          http.StatusOK,
	types.ErrCodeInternal:           http.StatusInternalServerError,
}

// respondError maps a domain error to its HTTP status. Internal failures are
// logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	code := types.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if code == types.ErrCodeInternal {
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		log.Error().
			Err(cause).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("request failed")
		message = "internal server error"
	}

	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}
