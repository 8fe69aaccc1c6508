package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"anoa.com/poemhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter lets an action through once per window for each key. When it
// refuses, it returns how long until the key is free again.
type RateLimiter interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

type redisRateLimiter struct {
	rdb *redis.Client
}

func NewRedisRateLimiter(rdb *redis.Client) RateLimiter {
	return &redisRateLimiter{rdb: rdb}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	key = "rate_limit:" + key
	wasSet, err := r.rdb.SetNX(ctx, key, "locked", window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return true, 0, nil
	}
	ttl, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	return false, ttl, nil
}

type memoryRateLimiter struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{until: make(map[string]time.Time), now: time.Now}
}

func (m *memoryRateLimiter) Allow(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.until[key]; ok && now.Before(until) {
		return false, until.Sub(now), nil
	}
	m.until[key] = now.Add(window)
	return true, 0, nil
}

// Throttle allows the authenticated user one request per window for action.
// Must run after RequireAuth.
func Throttle(limiter RateLimiter, action string, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		ok, wait, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("user:%d:%s", userID, action), window)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("please wait %s before trying again", wait.Round(time.Second)),
			})
			return
		}
		c.Next()
	}
}
