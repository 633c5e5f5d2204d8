package handler

import (
	"net/http"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/delivery/http/response"
	"smartblog/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PostHandler serves the blog post endpoints.
type PostHandler struct {
	uc usecase.PostUsecase
}

// NewPostHandler is the constructor for PostHandler, injected by Fx.
func NewPostHandler(uc usecase.PostUsecase) *PostHandler {
	return &PostHandler{uc: uc}
}

// OwnerOf resolves the author of the post addressed by the postId path parameter.
func (h *PostHandler) OwnerOf(c echo.Context) (usecase.OwnerResolver, error) {
	id, err := uuidParam(c, "postId")
	if err != nil {
		return nil, err
	}

	return h.uc.PostOwner(id), nil
}

func (h *PostHandler) ListPosts(c echo.Context) error {
	page, err := pageRequest(c)
	if err != nil {
		return err
	}

	posts, err := h.uc.ListPosts(c.Request().Context(), page)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toPageResponse(posts, toPostResponse))
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := uuidParam(c, "postId")
	if err != nil {
		return err
	}

	post, err := h.uc.GetPost(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) ListUserPosts(c echo.Context) error {
	userID, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}
	page, err := pageRequest(c)
	if err != nil {
		return err
	}

	posts, err := h.uc.ListUserPosts(c.Request().Context(), userID, page)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toPageResponse(posts, toPostResponse))
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.uc.CreatePost(c.Request().Context(), deliverycontext.GetPrincipal(c), req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusCreated, toPostResponse(post))
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := uuidParam(c, "postId")
	if err != nil {
		return err
	}
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.uc.UpdatePost(c.Request().Context(), deliverycontext.GetPrincipal(c), id, req.Text)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, toPostResponse(post))
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := uuidParam(c, "postId")
	if err != nil {
		return err
	}

	if err := h.uc.DeletePost(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}

	return response.Text(c, http.StatusOK, "Post deleted successfully")
}
