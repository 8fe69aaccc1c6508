package middleware

import (
	"net/http"
	"strings"

	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	users  repository.UserRepository
	tokens *TokenIssuer
}

func NewAuthMiddleware(users repository.UserRepository, tokens *TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{users: users, tokens: tokens}
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// authenticate resolves the bearer token to a user that still exists and
// stores it on the context. The role comes from the stored user, so a role
// change takes effect without a new token.
func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) (int, string) {
	claims, err := m.tokens.Parse(tokenString)
	if err != nil {
		return http.StatusUnauthorized, "invalid or expired token"
	}

	user, err := m.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return http.StatusUnauthorized, "user not found"
	}

	c.Set(response.ContextUserID, user.ID)
	c.Set(response.ContextUsername, user.Username)
	c.Set(response.ContextRole, user.Role)
	c.Set(response.ContextEmail, user.Email)
	return 0, ""
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		if code, msg := m.authenticate(c, tokenString); code != 0 {
			c.AbortWithStatusJSON(code, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous requests through.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			m.authenticate(c, tokenString)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := response.GetUserID(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}
		if response.GetRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": strings.ToLower(role) + " access required"})
			return
		}
		c.Next()
	}
}
