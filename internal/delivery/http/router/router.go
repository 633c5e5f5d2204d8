// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"smartblog/internal/delivery/http/middleware"
	"smartblog/internal/delivery/http/router/handler"
	"smartblog/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	HealthHandler  *handler.HealthHandler `optional:"true"`
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	postHandler    *handler.PostHandler
	healthHandler  *handler.HealthHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	health := params.HealthHandler
	if health == nil {
		health = handler.NewHealthHandler(nil)
	}

	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		postHandler:    params.PostHandler,
		healthHandler:  health,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.healthHandler.Check)

	api := e.Group("/api")
	authn := r.authMiddleware.Authenticate
	require := r.authMiddleware.RequirePermission
	requireOrOwner := r.authMiddleware.RequirePermissionOrOwner

	// Public auth routes. Refresh authenticates with the refresh token itself.
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh/token", r.authHandler.RefreshToken)
		authGroup.GET("/accountVerification/:token", r.authHandler.VerifyAccount)
		authGroup.POST("/forgetMyPassword/:email", r.authHandler.ForgetPassword)
		authGroup.PUT("/forgetMyPassword/newPasw", r.authHandler.ResetPassword)
		authGroup.POST("/logout", r.authHandler.Logout, authn)
	}

	postGroup := api.Group("/post", authn)
	{
		postGroup.GET("", r.postHandler.ListPosts, require(entity.PermissionPostRead))
		postGroup.GET("/:postId", r.postHandler.GetPost, require(entity.PermissionPostRead))
		postGroup.GET("/user/:userId", r.postHandler.ListUserPosts, require(entity.PermissionPostRead))
		postGroup.POST("", r.postHandler.CreatePost, require(entity.PermissionPostCreate))
		postGroup.PUT("/:postId", r.postHandler.UpdatePost, requireOrOwner(entity.PermissionPostUpdate, r.postHandler.OwnerOf))
		postGroup.DELETE("/:postId", r.postHandler.DeletePost, requireOrOwner(entity.PermissionPostDelete, r.postHandler.OwnerOf))
	}

	userGroup := api.Group("/user", authn)
	{
		userGroup.GET("", r.userHandler.GetCurrentUser)
		userGroup.PUT("", r.userHandler.UpdateCurrentUser)
		userGroup.DELETE("", r.userHandler.DeleteCurrentUser)
		userGroup.PUT("/change-password", r.userHandler.ChangePassword)
		userGroup.GET("/all", r.userHandler.ListUsers, require(entity.PermissionUserRead))
		userGroup.GET("/:userId", r.userHandler.GetUser, require(entity.PermissionUserRead))
		userGroup.PUT("/update-role/:userId/:userRole", r.userHandler.UpdateUserRole, require(entity.PermissionUserChangeRole))
		userGroup.PUT("/change-enabled/:userId", r.userHandler.ToggleUserEnabled, require(entity.PermissionUserChangeEnabled))
	}
}
