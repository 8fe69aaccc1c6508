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

type PoemHandler struct {
	poems    repository.PoemRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
}

func NewPoemHandler(poems repository.PoemRepository, comments repository.CommentRepository, likes repository.LikeRepository) *PoemHandler {
	return &PoemHandler{poems: poems, comments: comments, likes: likes}
}

func poemEntities(poems []*model.Poem) []entity.Poem {
	out := make([]entity.Poem, 0, len(poems))
	for _, p := range poems {
		out = append(out, p.Entity())
	}
	return out
}

func (h *PoemHandler) GetAllPoems(c *gin.Context) {
	poems, err := h.poems.FindAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, poemEntities(poems))
}

func (h *PoemHandler) GetLikedPoems(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	ctx := c.Request.Context()
	ids, err := h.likes.LikedPoemIDs(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	poems, err := h.poems.FindByIDs(ctx, ids)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, poemEntities(poems))
}

func (h *PoemHandler) GetPoem(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	poem, err := h.poems.FindByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, poem.Entity())
}

// SavePoem creates the poem when the body has no id and updates it
// otherwise.
func (h *PoemHandler) SavePoem(c *gin.Context) {
	var input entity.Poem
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", apperror.ErrBadRequest))
		return
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	if err := validator.Struct(input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput))
		return
	}

	created := input.ID == 0
	poem := model.PoemFromEntity(input)
	if err := h.poems.Save(c.Request.Context(), poem); err != nil {
		response.ResponseError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, poem.Entity())
}

func (h *PoemHandler) DeletePoem(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.poems.Delete(ctx, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	if err := h.comments.DeleteByPoem(ctx, id); err != nil {
		_ = c.Error(err)
	}
	if err := h.likes.DeleteByPoem(ctx, id); err != nil {
		_ = c.Error(err)
	}
	response.NoContent(c)
}
