// Package context carries request-scoped values between the echo layer and the usecases.
// Every value is stored in both echo.Context and the request's context.Context, so
// services that only see a context.Context read the same request id, logger and principal.
package context

import (
	"context"

	"github.com/labstack/echo/v4"
)

// HeaderXRequestID is the HTTP header name for request ID.
const HeaderXRequestID = "X-Request-Id"

// ctxKey is unexported so no other package can collide with or overwrite these values.
type ctxKey struct{ name string }

//nolint:gochecknoglobals
var (
	requestIDKey = ctxKey{"request_id"}
	loggerKey    = ctxKey{"logger"}
	principalKey = ctxKey{"principal"}
)

// valueOf returns the value stored under key, or the zero value of T.
func valueOf[T any](ctx context.Context, key ctxKey) T {
	v, _ := ctx.Value(key).(T)

	return v
}

// GetRequestID returns the request id of the echo request, or "" before RequestIDMiddleware ran.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey.name).(string); ok && id != "" {
		return id
	}

	return GetRequestIDFromContext(c.Request().Context())
}

// SetRequestID stores the request id in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(requestIDKey.name, requestID)
}

// GetRequestIDFromContext returns the request id, or "" when none was set.
func GetRequestIDFromContext(ctx context.Context) string {
	return valueOf[string](ctx, requestIDKey)
}

// WithRequestID returns a new context with the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
