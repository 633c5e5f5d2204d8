// Package response writes HTTP bodies: plain text confirmations, bare JSON data and the error envelope.
package response

import (
	"net/http"

	deliverycontext "smartblog/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the envelope of every failed request.
type ErrorBody struct {
	Success   bool        `json:"success"`
	Code      int         `json:"code"` // HTTP status
	Message   string      `json:"message"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"` // e.g. DUPLICATE_VALUE
	Details string `json:"details,omitempty"`
}

// hidesDetails reports statuses whose details could leak internals or account state.
func hidesDetails(status int) bool {
	return status >= http.StatusInternalServerError ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden
}

func Error(c echo.Context, status int, code, message, details string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	if hidesDetails(status) {
		details = ""
	}

	return c.JSON(status, ErrorBody{
		Code:      status,
		Message:   message,
		Error:     ErrorDetail{Code: code, Details: details},
		RequestID: deliverycontext.GetRequestID(c),
	})
}

func Text(c echo.Context, status int, message string) error {
	return c.String(status, message)
}

func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, data)
}
