package handler

import (
	"net/http"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/delivery/http/response"
	"smartblog/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc usecase.UserUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.uc.GetCurrentUser(c.Request().Context(), deliverycontext.GetPrincipal(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.UpdateCurrentUser(c.Request().Context(), deliverycontext.GetPrincipal(c), usecase.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     req.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.uc.ChangePassword(c.Request().Context(), deliverycontext.GetPrincipal(c), usecase.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusAccepted, "Change Password Successfully")
}

func (h *UserHandler) DeleteCurrentUser(c echo.Context) error {
	if err := h.uc.DeleteCurrentUser(c.Request().Context(), deliverycontext.GetPrincipal(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "User deleted successfully")
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}

	user, err := h.uc.GetUser(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}

	users, err := h.uc.ListUsers(c.Request().Context(), page)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toPageResponse(users, toUserResponse))
}

func (h *UserHandler) UpdateUserRole(c echo.Context) error {
	id, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}

	_, err = h.uc.UpdateUserRole(c.Request().Context(), deliverycontext.GetPrincipal(c), id, c.Param("userRole"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "User role changed succsessfully")
}

func (h *UserHandler) ToggleUserEnabled(c echo.Context) error {
	id, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}

	if _, err := h.uc.ToggleUserEnabled(c.Request().Context(), deliverycontext.GetPrincipal(c), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "User enabled status changed")
}
