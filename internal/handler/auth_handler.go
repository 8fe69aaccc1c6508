package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"anoa.com/poemhub/internal/dto"
	"anoa.com/poemhub/internal/middleware"
	"anoa.com/poemhub/internal/model"
	authDto "anoa.com/poemhub/internal/modules/auth/dto"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/response"
	"anoa.com/poemhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "Invalid credentials", apperror.ErrUnauthorized)

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(http.StatusBadRequest, "invalid "+name, apperror.ErrBadRequest)
	}
	return id, nil
}

// bindJSON decodes the body into req and validates its validate tags.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", apperror.ErrBadRequest))
		return false
	}
	if err := validator.Struct(req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput))
		return false
	}
	return true
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

type AuthHandler struct {
	users  repository.UserRepository
	tokens *middleware.TokenIssuer
}

func NewAuthHandler(users repository.UserRepository, tokens *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "Username and password are required", apperror.ErrBadRequest))
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), strings.TrimSpace(input.Username))
	if errors.Is(err, apperror.ErrNotFound) {
		response.ResponseError(c, errInvalidCredentials)
		return
	}
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		response.ResponseError(c, errInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, authDto.LoginResponse{
		Token:    token,
		Role:     user.Role,
		Email:    user.Email,
		Username: user.Username,
	})
}

// Register creates a USER account and signs it in. Only an administrator
// may pick another role.
func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterRequest
	if !bindJSON(c, &input) {
		return
	}

	role := "USER"
	if input.Role != "" && response.IsAdmin(c) {
		role = input.Role
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user := &model.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hashed,
		Role:         role,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		response.ResponseError(c, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authDto.RegisterResponse{Token: token})
}
