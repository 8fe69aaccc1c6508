// Package session holds the one piece of process wide state: who is logged
// in. It is restored from durable storage at startup, written on login and
// cleared on logout.
package session

import (
	"context"
	"sync"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/token"
)

type Store struct {
	storage Storage
	log     logger.Logger

	mu       sync.RWMutex
	identity entity.Identity
	restored bool
	ready    chan struct{}
	once     sync.Once

	subMu  sync.Mutex
	subs   map[int]func(entity.Identity)
	nextID int
}

func NewStore(storage Storage, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		storage: storage,
		log:     log,
		ready:   make(chan struct{}),
		subs:    make(map[int]func(entity.Identity)),
	}
}

// Restore loads the persisted session. A token without a valid role, or a
// role without a token, is treated as no session at all. Restore always
// marks the store restored, even when storage fails.
func (s *Store) Restore(ctx context.Context) error {
	defer s.markRestored()

	tok, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		s.log.Warn("session restore failed", map[string]interface{}{"error": err})
		return err
	}
	rawRole, hasRole, err := s.storage.Get(ctx, KeyRole)
	if err != nil {
		s.log.Warn("session restore failed", map[string]interface{}{"error": err})
		return err
	}
	if !hasToken || tok == "" || !hasRole {
		return nil
	}
	role, ok := entity.ParseRole(rawRole)
	if !ok {
		s.log.Warn("ignoring persisted session with unknown role", map[string]interface{}{"role": rawRole})
		return nil
	}

	email, _, _ := s.storage.Get(ctx, KeyEmail)
	username, _, _ := s.storage.Get(ctx, KeyUsername)

	id := entity.Identity{
		Token:    tok,
		Role:     role,
		Email:    email,
		Username: username,
	}
	if uid, ok := token.Decode(tok).UserID(); ok {
		id.UserID = uid
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()

	s.log.Debug("session restored", map[string]interface{}{"role": role, "username": username})
	s.notify(id)
	return nil
}

func (s *Store) markRestored() {
	s.once.Do(func() {
		s.mu.Lock()
		s.restored = true
		s.mu.Unlock()
		close(s.ready)
	})
}

func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// Ready is closed once Restore has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Login persists and adopts id. An empty role becomes USER; empty email and
// username are not written.
func (s *Store) Login(ctx context.Context, id entity.Identity) error {
	if id.Role == "" {
		id.Role = entity.RoleUser
	}
	if id.UserID == 0 {
		if uid, ok := token.Decode(id.Token).UserID(); ok {
			id.UserID = uid
		}
	}

	// Stale optional keys from an earlier account must not survive.
	if err := s.storage.Remove(ctx, KeyEmail, KeyUsername); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, KeyToken, id.Token); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, KeyRole, string(id.Role)); err != nil {
		return err
	}
	if id.Email != "" {
		if err := s.storage.Set(ctx, KeyEmail, id.Email); err != nil {
			return err
		}
	}
	if id.Username != "" {
		if err := s.storage.Set(ctx, KeyUsername, id.Username); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()

	s.log.Info("logged in", map[string]interface{}{"username": id.Username, "role": id.Role})
	s.notify(id)
	return nil
}

// Logout forgets the session. Memory is cleared even when storage fails so
// that the process never keeps acting as the old user.
func (s *Store) Logout(ctx context.Context) error {
	err := s.storage.Remove(ctx, allKeys...)
	if err != nil {
		s.log.Warn("clearing persisted session failed", map[string]interface{}{"error": err})
	}

	s.mu.Lock()
	s.identity = entity.Identity{}
	s.mu.Unlock()

	s.notify(entity.Identity{})
	return err
}

func (s *Store) Current() entity.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Token implements httpclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.Token
}

// Subscribe registers fn for identity changes and returns the function that
// removes it. fn runs on the goroutine that changed the session.
func (s *Store) Subscribe(fn func(entity.Identity)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(id entity.Identity) {
	s.subMu.Lock()
	fns := make([]func(entity.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
