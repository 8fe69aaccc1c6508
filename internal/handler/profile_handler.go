package handler

import (
	"net/http"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/response"
	"anoa.com/poemhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

var errNotYourProfile = apperror.New(http.StatusForbidden, "You can only access your own profile", apperror.ErrForbidden)

type ProfileHandler struct {
	profiles repository.ProfileRepository
}

func NewProfileHandler(profiles repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func ownsProfile(c *gin.Context, email string) bool {
	return response.IsAdmin(c) || strings.EqualFold(response.GetEmail(c), strings.TrimSpace(email))
}

func (h *ProfileHandler) GetAllProfiles(c *gin.Context) {
	profiles, err := h.profiles.FindAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	out := make([]entity.Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Entity())
	}
	c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	email := c.Param("email")
	if !ownsProfile(c, email) {
		response.ResponseError(c, errNotYourProfile)
		return
	}
	profile, err := h.profiles.FindByEmail(c.Request.Context(), email)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile.Entity())
}

func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	var input entity.Profile
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", apperror.ErrBadRequest))
		return
	}
	input.UserEmail = strings.TrimSpace(input.UserEmail)
	if err := validator.Struct(input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput))
		return
	}
	if !ownsProfile(c, input.UserEmail) {
		response.ResponseError(c, errNotYourProfile)
		return
	}

	profile := model.ProfileFromEntity(input)
	if err := h.profiles.Save(c.Request.Context(), profile); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile.Entity())
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if err := h.profiles.Delete(c.Request.Context(), c.Param("email")); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.NoContent(c)
}
