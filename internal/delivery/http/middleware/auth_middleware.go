package middleware

import (
	"strings"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// OwnerLookup builds the owner resolver of the resource addressed by a request.
type OwnerLookup func(c echo.Context) (usecase.OwnerResolver, error)

// AuthMiddleware authenticates bearer access tokens and guards routes by permission.
type AuthMiddleware struct {
	authUC  usecase.AuthUsecase
	authzUC usecase.AuthorizationUsecase
}

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	AuthUsecase          usecase.AuthUsecase
	AuthorizationUsecase usecase.AuthorizationUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		authUC:  params.AuthUsecase,
		authzUC: params.AuthorizationUsecase,
	}
}

// Authenticate resolves the principal of the access token in the Authorization header.
// The token must also be the live entry of the session ledger.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized.WithDetails("Authorization header is missing")
		}

		tokenString, ok := strings.CutPrefix(authHeader, bearerPrefix)
		if !ok || tokenString == "" {
			return domainerrors.ErrUnauthorized.WithDetails("Invalid token format, must be Bearer token")
		}

		principal, err := m.authUC.ResolvePrincipal(c.Request().Context(), tokenString)
		if err != nil {
			return err
		}

		deliverycontext.SetPrincipal(c, principal)

		return next(c)
	}
}

// RequirePermission allows principals holding permission. It must be used AFTER Authenticate.
func (m *AuthMiddleware) RequirePermission(permission entity.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := m.authzUC.Authorize(c.Request().Context(), deliverycontext.GetPrincipal(c), permission, nil)
			if err != nil {
				return err
			}

			return next(c)
		}
	}
}

// RequirePermissionOrOwner also allows the owner of the addressed resource.
func (m *AuthMiddleware) RequirePermissionOrOwner(permission entity.Permission, lookup OwnerLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			owner, err := lookup(c)
			if err != nil {
				return err
			}

			err = m.authzUC.Authorize(c.Request().Context(), deliverycontext.GetPrincipal(c), permission, owner)
			if err != nil {
				return err
			}

			return next(c)
		}
	}
}
