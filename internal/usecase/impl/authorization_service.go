package impl

import (
	"context"
	"log/slog"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/usecase"

	"go.uber.org/fx"
)

type authorizationService struct {
	logger *slog.Logger
}

// AuthorizationServiceParams holds dependencies for AuthorizationService, injected by Fx.
type AuthorizationServiceParams struct {
	fx.In

	Logger *slog.Logger
}

// NewAuthorizationService creates the permission checker used by the HTTP layer.
func NewAuthorizationService(params AuthorizationServiceParams) usecase.AuthorizationUsecase {
	return &authorizationService{logger: params.Logger}
}

func (srv *authorizationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Authorize grants access on the permission first. The owner is only resolved when the
// permission is missing, so a missing resource surfaces as not found instead of forbidden.
func (srv *authorizationService) Authorize(ctx context.Context, principal *entity.Principal, permission entity.Permission, owner usecase.OwnerResolver) error {
	if err := requirePrincipal(principal); err != nil {
		return err
	}

	if principal.HasAuthority(permission.String()) {
		return nil
	}

	if owner != nil {
		ownerID, err := owner(ctx)
		if err != nil {
			return err
		}
		if ownerID == principal.UserID {
			return nil
		}
	}

	srv.log(ctx).Info("Access denied",
		slog.Any("userID", principal.UserID),
		slog.String("permission", permission.String()),
	)

	return domainerrors.ErrForbidden
}
