package handler

import (
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

// uuidParam parses the path parameter name as a UUID.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails(name + " must be a UUID")
	}

	return id, nil
}

// pageRequest reads the page and size query parameters, defaulting to the first page of ten.
func pageRequest(c echo.Context) (entity.PageRequest, error) {
	page := entity.PageRequest{Page: 0, Size: entity.DefaultPageSize}

	err := echo.QueryParamsBinder(c).
		Int("page", &page.Page).
		Int("size", &page.Size).
		BindError()
	if err != nil {
		return page, domainerrors.ErrValidationFailed.WithDetails("page and size must be integers")
	}

	return page.Normalize(), nil
}
