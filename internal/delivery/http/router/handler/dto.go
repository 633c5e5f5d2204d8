// Package handler contains the HTTP handlers for the application.
package handler

import (
	"time"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Requests ---

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	UserName  string `json:"userName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPasw" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPasw" validate:"required"`
	NewPassword string `json:"newPasw" validate:"required"`
}

type updateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	UserName  string `json:"userName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
}

type postRequest struct {
	Text string `json:"text" validate:"required"`
}

// --- Responses ---

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	UserName    string    `json:"userName"`
	Email       string    `json:"email"`
	Enabled     bool      `json:"enabled"`
	Role        string    `json:"role"`
	MemberSince time.Time `json:"memberSince"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   string    `json:"updatedBy"`
}

// PostResponse flattens the post and its author.
type PostResponse struct {
	PostID    uuid.UUID `json:"postId"`
	Text      string    `json:"text"`
	UserID    uuid.UUID `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// PageResponse is the JSON form of entity.Page.
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func toUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		UserName:    user.UserName,
		Email:       user.Email,
		Enabled:     user.Enabled,
		Role:        user.Role.String(),
		MemberSince: user.MemberSince,
		CreatedAt:   user.CreatedAt,
		CreatedBy:   user.CreatedBy,
		UpdatedAt:   user.UpdatedAt,
		UpdatedBy:   user.UpdatedBy,
	}
}

func toPostResponse(post *entity.Post) PostResponse {
	resp := PostResponse{
		PostID:    post.ID,
		Text:      post.Text,
		UserID:    post.UserID,
		CreatedAt: post.CreatedAt,
		CreatedBy: post.CreatedBy,
		UpdatedAt: post.UpdatedAt,
		UpdatedBy: post.UpdatedBy,
	}
	if post.Author != nil {
		resp.FirstName = post.Author.FirstName
		resp.LastName = post.Author.LastName
		resp.UserName = post.Author.UserName
	}

	return resp
}

func toPageResponse[T, R any](page *entity.Page[T], fn func(T) R) PageResponse[R] {
	mapped := entity.MapPage(page, fn)

	return PageResponse[R]{
		Content:       mapped.Content,
		Page:          mapped.Page,
		Size:          mapped.Size,
		TotalElements: mapped.TotalElements,
		TotalPages:    mapped.TotalPages,
	}
}
