package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/delivery/http/response"
	domainerrors "smartblog/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	codeHTTPError     = "HTTP_ERROR"
	codeInternalError = "INTERNAL_ERROR"
	internalMessage   = "Internal server error, please try again later"
)

// ErrorMiddleware is the echo HTTPErrorHandler rendering the error envelope.
type ErrorMiddleware struct {
	logger *slog.Logger
}

func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{logger: logger}
}

type errorReply struct {
	status  int
	code    string
	message string
	details string
}

func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	reply := classifyError(err)
	if reply.status >= http.StatusInternalServerError {
		req := c.Request()
		deliverycontext.GetLoggerOrDefault(req.Context(), m.logger).LogAttrs(req.Context(), slog.LevelError, "Request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", reply.status),
			slog.String("error", fmt.Sprintf("%+v", err)),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(reply.status)

		return
	}

	_ = response.Error(c, reply.status, reply.code, reply.message, reply.details)
}

// classifyError maps domain errors to their own status and code and echo errors to
// HTTP_ERROR. Anything else is an opaque 500.
func classifyError(err error) errorReply {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return errorReply{
			status:  appErr.HTTPCode(),
			code:    appErr.ErrorCode(),
			message: appErr.Message(),
			details: appErr.Details(),
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}

		return errorReply{status: httpErr.Code, code: codeHTTPError, message: message}
	}

	return errorReply{status: http.StatusInternalServerError, code: codeInternalError, message: internalMessage}
}
