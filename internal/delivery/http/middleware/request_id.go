package middleware

import (
	"log/slog"

	deliverycontext "smartblog/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
)

// maxRequestIDLength bounds client supplied request ids before they reach logs and mail metadata.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns every request an id and a logger carrying it.
// A well-formed X-Request-Id from the client is kept, anything else is replaced by a uuid.
type RequestIDMiddleware struct {
	logger    *slog.Logger
	requestID echo.MiddlewareFunc
}

func NewRequestIDMiddleware(logger *slog.Logger) *RequestIDMiddleware {
	m := &RequestIDMiddleware{logger: logger}
	m.requestID = echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		TargetHeader:     deliverycontext.HeaderXRequestID,
		Generator:        uuid.NewString,
		RequestIDHandler: m.bind,
	})

	return m
}

func (m *RequestIDMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	withID := m.requestID(next)

	return func(c echo.Context) error {
		header := c.Request().Header
		if !validRequestID(header.Get(deliverycontext.HeaderXRequestID)) {
			header.Del(deliverycontext.HeaderXRequestID)
		}

		return withID(c)
	}
}

// bind exposes the id to handlers through echo and to services through context.Context.
func (m *RequestIDMiddleware) bind(c echo.Context, requestID string) {
	deliverycontext.SetRequestID(c, requestID)

	ctx := deliverycontext.WithRequestID(c.Request().Context(), requestID)
	ctx = deliverycontext.WithLogger(ctx, m.logger.With(slog.String("request_id", requestID)))
	c.SetRequest(c.Request().WithContext(ctx))
}

// validRequestID accepts short printable ASCII ids without spaces.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}

// AccessLog is the slog-echo access logger shared by the API and the mail worker.
// It must run after RequestIDMiddleware to pick up the response header.
func AccessLog(logger *slog.Logger, debug bool) echo.MiddlewareFunc {
	return slogecho.NewWithConfig(logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		WithUserAgent:    debug,
	})
}
