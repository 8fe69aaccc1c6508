package main

import (
	"context"
	"fmt"
	"os"

	"anoa.com/poemhub/internal/bootstrap"
	"anoa.com/poemhub/internal/config"
	"anoa.com/poemhub/internal/middleware"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/internal/server"
	"anoa.com/poemhub/pkg/database"
	"anoa.com/poemhub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("poemstub", pflag.ExitOnError)
	config.StubFlags(fs)
	adminPassword := fs.String("admin-password", "admin123", "password of the seeded admin account (development only)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.AppEnv, os.Stderr)
	if err := run(cfg, log, *adminPassword); err != nil {
		log.Error("poemstub exited with error", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger, adminPassword string) error {
	ctx := context.Background()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	var repos *repository.Repositories
	if cfg.Stub.DatabaseURL != "" {
		db, err := database.Connect(cfg.Stub.DatabaseURL, cfg.LogLevel == "debug")
		if err != nil {
			return err
		}
		if err := bootstrap.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		repos = repository.NewGormRepositories(db)
		log.Info("using postgres storage", nil)
	} else {
		repos = repository.NewMemoryRepositories()
		log.Info("using in-memory storage", nil)
	}

	limiter := middleware.NewMemoryRateLimiter()
	if cfg.Stub.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Stub.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid STUB_REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		repos.WithRedisLikes(client)
		limiter = middleware.NewRedisRateLimiter(client)
		log.Info("keeping likes and rate limits in redis", nil)
	}

	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(ctx, repos.Users, adminPassword, log); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		if err := bootstrap.SeedPoems(ctx, repos.Poems); err != nil {
			return fmt.Errorf("failed to seed poems: %w", err)
		}
	}

	tokens := middleware.NewTokenIssuer(cfg.Stub.JWTSecret, cfg.Stub.JWTTTL)
	srv := server.NewServer(repos, tokens, log, server.Options{
		AllowedOrigins:  cfg.Stub.AllowedOrigins,
		RequestLog:      true,
		CommentCooldown: cfg.Stub.CommentCooldown,
		Limiter:         limiter,
	})

	addr := ":" + cfg.Stub.Port
	log.Info("poemstub listening", map[string]interface{}{"addr": addr})
	return srv.Run(addr)
}
