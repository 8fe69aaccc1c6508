// Package server is the development backend: the poem REST API the client
// talks to, on gin.
package server

import (
	"net/http"
	"strings"
	"time"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/handler"
	"anoa.com/poemhub/internal/middleware"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	engine *gin.Engine
}

type Options struct {
	AllowedOrigins string
	RequestLog     bool

	// CommentCooldown is the time a user waits between two comments; zero
	// disables it. Limiter defaults to an in-memory one.
	CommentCooldown time.Duration
	Limiter         middleware.RateLimiter
}

func NewServer(repos *repository.Repositories, tokens *middleware.TokenIssuer, log logger.Logger, opts Options) *Server {
	authHandler := handler.NewAuthHandler(repos.Users, tokens)
	userHandler := handler.NewUserHandler(repos.Users, repos.Profiles)
	poemHandler := handler.NewPoemHandler(repos.Poems, repos.Comments, repos.Likes)
	likeHandler := handler.NewLikeHandler(repos.Likes, repos.Poems)
	commentHandler := handler.NewCommentHandler(repos.Comments, repos.Poems)
	profileHandler := handler.NewProfileHandler(repos.Profiles)

	router := gin.New()

	setupCORS(router, opts.AllowedOrigins)

	router.Use(gin.Recovery())
	if opts.RequestLog {
		router.Use(gin.Logger())
	}
	router.Use(errorLogger(log))

	authMiddleware := middleware.NewAuthMiddleware(repos.Users, tokens)
	admin := string(entity.RoleAdmin)

	api := router.Group("/api")

	// Public routes; a token, when sent, identifies the caller
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)

		public.GET("/poems", poemHandler.GetAllPoems)
		public.GET("/poems/:id", poemHandler.GetPoem)
		public.GET("/poems/:id/likes", likeHandler.CountLikes)
		public.GET("/comments/poem/:id", commentHandler.GetCommentsByPoem)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/poems/liked", poemHandler.GetLikedPoems)
		protected.GET("/poems/:id/likes/user", likeHandler.HasLiked)
		protected.POST("/poems/:id/like", likeHandler.LikePoem)
		protected.DELETE("/poems/:id/like", likeHandler.UnlikePoem)

		if opts.CommentCooldown > 0 {
			limiter := opts.Limiter
			if limiter == nil {
				limiter = middleware.NewMemoryRateLimiter()
			}
			protected.POST("/comments", middleware.Throttle(limiter, "comment", opts.CommentCooldown), commentHandler.CreateComment)
		} else {
			protected.POST("/comments", commentHandler.CreateComment)
		}
		protected.PUT("/comments/:id", commentHandler.UpdateComment)
		protected.DELETE("/comments/:id", commentHandler.DeleteComment)

		protected.GET("/auth/:id", userHandler.GetUser)
		protected.GET("/auth/user/email/:email", userHandler.GetUserByEmail)
		protected.PUT("/auth/:id", userHandler.UpdateUser)

		protected.GET("/profile/:email", profileHandler.GetProfile)
		protected.POST("/profile", profileHandler.SaveProfile)

		adminGroup := protected.Group("")
		adminGroup.Use(authMiddleware.RequireRole(admin))
		{
			adminGroup.POST("/poems", poemHandler.SavePoem)
			adminGroup.DELETE("/poems/:id", poemHandler.DeletePoem)

			adminGroup.GET("/auth/users", userHandler.GetAllUsers)
			adminGroup.DELETE("/auth/:id", userHandler.DeleteUser)

			adminGroup.GET("/profile", profileHandler.GetAllProfiles)
			adminGroup.DELETE("/profile/:email", profileHandler.DeleteProfile)
		}
	}

	return &Server{engine: router}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// errorLogger reports errors handlers attached to the context.
func errorLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			log.Error("request failed", map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"status": c.Writer.Status(),
				"error":  e.Err,
			})
		}
	}
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
