package impl

import (
	"context"
	"testing"

	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizationService_Authorize(t *testing.T) {
	srv := NewAuthorizationService(AuthorizationServiceParams{Logger: newDiscardLogger()})
	ctx := context.Background()

	user := &entity.Principal{UserID: uuid.New(), Role: entity.RoleUser, Authorities: entity.RoleUser.Authorities()}
	admin := &entity.Principal{UserID: uuid.New(), Role: entity.RoleAdmin, Authorities: entity.RoleAdmin.Authorities()}

	ownedBy := func(id uuid.UUID) usecase.OwnerResolver {
		return func(context.Context) (uuid.UUID, error) { return id, nil }
	}
	missing := func(context.Context) (uuid.UUID, error) { return uuid.Nil, domainerrors.ErrPostNotFound }

	tests := []struct {
		name       string
		principal  *entity.Principal
		permission entity.Permission
		owner      usecase.OwnerResolver
		want       error
	}{
		{name: "anonymous", principal: nil, permission: entity.PermissionPostRead, want: domainerrors.ErrUnauthorized},
		{name: "user holds permission", principal: user, permission: entity.PermissionPostCreate},
		{name: "user lacks permission", principal: user, permission: entity.PermissionUserRead, want: domainerrors.ErrForbidden},
		{name: "owner without permission", principal: user, permission: entity.PermissionPostDelete, owner: ownedBy(user.UserID)},
		{name: "stranger without permission", principal: user, permission: entity.PermissionPostDelete, owner: ownedBy(uuid.New()), want: domainerrors.ErrForbidden},
		{name: "missing resource", principal: user, permission: entity.PermissionPostDelete, owner: missing, want: domainerrors.ErrPostNotFound},
		{name: "admin skips owner lookup", principal: admin, permission: entity.PermissionPostDelete, owner: missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := srv.Authorize(ctx, tt.principal, tt.permission, tt.owner)
			if tt.want == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
