package handler

import (
	"net/http"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/delivery/http/response"
	"smartblog/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler serves registration, login and the token workflows.
type AuthHandler struct {
	uc usecase.AuthUsecase
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register handles the user registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserName:  req.UserName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "User Registiration Successfully")
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Authenticate(c.Request().Context(), usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, TokenPairResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	})
}

// RefreshToken answers with an empty 200 when the refresh token is missing or unusable.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	output, err := h.uc.RefreshToken(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return errors.WithStack(err)
	}
	if output == nil {
		return c.NoContent(http.StatusOK)
	}

	return response.JSON(c, http.StatusOK, TokenPairResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
	})
}

// VerifyAccount activates the account owning the token in the path.
func (h *AuthHandler) VerifyAccount(c echo.Context) error {
	if err := h.uc.VerifyAccount(c.Request().Context(), c.Param("token")); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "Account Activated Successfully")
}

// ForgetPassword mails a reset token to the address in the path.
func (h *AuthHandler) ForgetPassword(c echo.Context) error {
	if err := h.uc.ForgetPassword(c.Request().Context(), c.Param("email")); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "Token is delivered")
}

// ResetPassword sets a new password with a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.uc.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{Token: req.Token, NewPassword: req.NewPassword})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "New Password is determined")
}

// Logout ends every session of the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context(), deliverycontext.GetPrincipal(c)); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "Logout Successfully")
}
