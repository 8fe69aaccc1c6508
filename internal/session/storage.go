package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Keys persisted for a session. No other keys are ever written.
const (
	KeyToken    = "token"
	KeyRole     = "role"
	KeyEmail    = "userEmail"
	KeyUsername = "userName"
)

var allKeys = []string{KeyToken, KeyRole, KeyEmail, KeyUsername}

// Storage is durable key/value storage on the client side. Get reports
// ok=false for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// OpenStorage builds the backend named by SESSION_BACKEND. path is the
// sqlite database, redisURL and prefix are used by redis.
func OpenStorage(backend, path, redisURL, prefix string) (Storage, error) {
	switch strings.ToLower(backend) {
	case "", "sqlite":
		return NewSQLiteStorage(path)
	case "memory":
		return NewMemoryStorage(), nil
	case "redis":
		return NewRedisStorage(redisURL, prefix)
	}
	return nil, fmt.Errorf("unknown session backend %q", backend)
}
