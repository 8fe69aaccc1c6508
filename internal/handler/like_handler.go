package handler

import (
	"net/http"

	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likes repository.LikeRepository
	poems repository.PoemRepository
}

func NewLikeHandler(likes repository.LikeRepository, poems repository.PoemRepository) *LikeHandler {
	return &LikeHandler{likes: likes, poems: poems}
}

// target returns the poem id of the request and the caller, after checking
// the poem exists.
func (h *LikeHandler) target(c *gin.Context) (int64, int64, bool) {
	poemID, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	if _, err := h.poems.FindByID(c.Request.Context(), poemID); err != nil {
		response.ResponseError(c, err)
		return 0, 0, false
	}
	return poemID, userID, true
}

func (h *LikeHandler) CountLikes(c *gin.Context) {
	poemID, err := paramID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	count, err := h.likes.Count(c.Request.Context(), poemID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func (h *LikeHandler) HasLiked(c *gin.Context) {
	poemID, userID, ok := h.target(c)
	if !ok {
		return
	}
	liked, err := h.likes.IsLiked(c.Request.Context(), poemID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, liked)
}

func (h *LikeHandler) LikePoem(c *gin.Context) {
	poemID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.likes.Like(c.Request.Context(), poemID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LikeHandler) UnlikePoem(c *gin.Context) {
	poemID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.likes.Unlike(c.Request.Context(), poemID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.NoContent(c)
}
