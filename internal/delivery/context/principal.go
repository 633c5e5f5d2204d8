package context

import (
	"context"

	"smartblog/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// SetPrincipal stores the authenticated principal in echo.Context and in the request context.
func SetPrincipal(c echo.Context, principal *entity.Principal) {
	c.Set(principalKey.name, principal)
	c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), principal)))
}

// GetPrincipal returns the principal set by the authentication middleware, or nil.
func GetPrincipal(c echo.Context) *entity.Principal {
	if principal, ok := c.Get(principalKey.name).(*entity.Principal); ok {
		return principal
	}

	return nil
}

// WithPrincipal returns a new context carrying the principal.
func WithPrincipal(ctx context.Context, principal *entity.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipalFromContext extracts the principal from standard context.Context.
func GetPrincipalFromContext(ctx context.Context) *entity.Principal {
	return valueOf[*entity.Principal](ctx, principalKey)
}
