package response

import (
	"errors"
	"net/http"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the envelope for non-callback endpoints (QR
// generation, lookups, health).
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the generic envelope for validation failures routed
// outside the callback flow.
type ErrorResponse struct {
	StatusCode domain.StatusCode `json:"status_code"`
	Message    string            `json:"message"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Callback sends a transaction outcome in the merchant callback shape.
// Always HTTP 200; merchants switch on status_code in the body.
func Callback(c *gin.Context, cb domain.Callback) {
	c.JSON(http.StatusOK, cb)
}

// Fail renders a failed transaction attempt in the callback shape so
// merchant integrations see the same body whether the outcome arrived
// synchronously or via webhook. Unknown errors map to 210.
func Fail(c *gin.Context, number string, custom map[string]string, err error) {
	code := domain.StatusUnexpected
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Status
	}
	cb := domain.NewCallback(number, code)
	cb.Custom = custom
	c.JSON(http.StatusOK, cb)
}

// Error sends a generic error envelope. Used for request-shape problems
// before a transaction number is even known.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			StatusCode: appErr.Status,
			Message:    appErr.Message,
			RequestID:  getRequestID(c),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		StatusCode: domain.StatusUnexpected,
		Message:    domain.StatusUnexpected.Message(),
		RequestID:  getRequestID(c),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
