package dto

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is what the register form collects. ConfirmPassword is
// checked locally and never sent; the API receives a mirrored copy of
// Password instead.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" validate:"omitempty,eqfield=Password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

type RegisterResponse struct {
	Token string `json:"token"`
}
