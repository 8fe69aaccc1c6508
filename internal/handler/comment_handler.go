package handler

import (
	"net/http"
	"time"

	"anoa.com/poemhub/internal/dto"
	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/response"
	"anoa.com/poemhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments repository.CommentRepository
	poems    repository.PoemRepository
	now      func() time.Time
}

func NewCommentHandler(comments repository.CommentRepository, poems repository.PoemRepository) *CommentHandler {
	return &CommentHandler{comments: comments, poems: poems, now: time.Now}
}

func (h *CommentHandler) GetCommentsByPoem(c *gin.Context) {
	poemID, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	comments, err := h.comments.FindByPoem(c.Request.Context(), poemID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	out := make([]entity.Comment, 0, len(comments))
	for _, cm := range comments {
		out = append(out, cm.Entity())
	}
	c.JSON(http.StatusOK, out)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input dto.CreateCommentRequest
	if !bindJSON(c, &input) {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.poems.FindByID(ctx, input.PoemID); err != nil {
		response.ResponseError(c, err)
		return
	}

	comment := &model.Comment{
		PoemID:      input.PoemID,
		AuthorID:    userID,
		Author:      response.GetUsername(c),
		Content:     input.Content,
		CommentDate: h.now().Format(validator.DateLayout),
	}
	if err := h.comments.Create(ctx, comment); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment.Entity())
}

// owned loads the comment of the request if the caller wrote it or is an
// administrator.
func (h *CommentHandler) owned(c *gin.Context) (*model.Comment, bool) {
	id, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	comment, err := h.comments.FindByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	userID, _ := response.GetUserID(c)
	if comment.AuthorID != userID && !response.IsAdmin(c) {
		response.ResponseError(c, apperror.New(http.StatusForbidden, apperror.ErrNotAuthor.Error(), apperror.ErrNotAuthor))
		return nil, false
	}
	return comment, true
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var input dto.UpdateCommentRequest
	if !bindJSON(c, &input) {
		return
	}
	comment, ok := h.owned(c)
	if !ok {
		return
	}
	comment.Content = input.Content
	if err := h.comments.Update(c.Request.Context(), comment); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment.Entity())
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	comment, ok := h.owned(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), comment.ID); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.NoContent(c)
}
