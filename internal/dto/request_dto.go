// Package dto holds the request bodies the backend stub accepts.
package dto

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type UpdateUserRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Password        string `json:"password" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type CreateCommentRequest struct {
	PoemID  int64  `json:"poemId" validate:"required,gt=0"`
	Content string `json:"content" validate:"required,max=2000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
