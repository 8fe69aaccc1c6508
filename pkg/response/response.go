package response

import (
	"net/http"

	"anoa.com/poemhub/pkg/apperror"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextEmail    = "email"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (int64, error) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, apperror.ErrUnauthorized
	}
	id, ok := v.(int64)
	if !ok || id == 0 {
		return 0, apperror.ErrUnauthorized
	}
	return id, nil
}

// GetRole is the role of the authenticated user, or "" for anonymous
// requests.
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// IsAdmin reports whether the authenticated user has the ADMIN role.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == "ADMIN"
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	msg := err.Error()
	if code == http.StatusInternalServerError {
		// Recorded for the request logger, not sent to the client.
		_ = c.Error(err)
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
