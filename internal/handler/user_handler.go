package handler

import (
	"net/http"
	"strings"

	"anoa.com/poemhub/internal/dto"
	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/response"
	"github.com/gin-gonic/gin"
)

var errNotYours = apperror.New(http.StatusForbidden, "You can only access your own account", apperror.ErrForbidden)

type UserHandler struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

func NewUserHandler(users repository.UserRepository, profiles repository.ProfileRepository) *UserHandler {
	return &UserHandler{users: users, profiles: profiles}
}

// allowed reports whether the caller may see or change the user.
func allowed(c *gin.Context, user *model.User) bool {
	id, _ := response.GetUserID(c)
	return response.IsAdmin(c) || id == user.ID
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.users.FindAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	out := make([]entity.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Entity())
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed(c, user) {
		response.ResponseError(c, errNotYours)
		return
	}
	c.JSON(http.StatusOK, user.Entity())
}

func (h *UserHandler) GetUserByEmail(c *gin.Context) {
	user, err := h.users.FindByEmail(c.Request.Context(), strings.TrimSpace(c.Param("email")))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed(c, user) {
		response.ResponseError(c, errNotYours)
		return
	}
	c.JSON(http.StatusOK, user.Entity())
}

// UpdateUser changes username, email and optionally the password. Only an
// administrator may change a role.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	var input dto.UpdateUserRequest
	if !bindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed(c, user) {
		response.ResponseError(c, errNotYours)
		return
	}

	oldEmail := user.Email
	user.Username = strings.TrimSpace(input.Username)
	user.Email = strings.TrimSpace(input.Email)
	if input.Role != "" && response.IsAdmin(c) {
		user.Role = input.Role
	}
	if input.Password != "" {
		hashed, err := hashPassword(input.Password)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		user.PasswordHash = hashed
	}

	if err := h.users.Update(ctx, user); err != nil {
		response.ResponseError(c, err)
		return
	}

	// The profile is keyed by email and follows the account.
	if !strings.EqualFold(oldEmail, user.Email) {
		if p, err := h.profiles.FindByEmail(ctx, oldEmail); err == nil {
			_ = h.profiles.Delete(ctx, oldEmail)
			p.UserEmail = user.Email
			_ = h.profiles.Save(ctx, p)
		}
	}

	c.JSON(http.StatusOK, user.Entity())
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if err := h.users.Delete(ctx, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	_ = h.profiles.Delete(ctx, user.Email)
	response.NoContent(c)
}
