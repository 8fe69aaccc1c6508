package service

import (
	"context"
	"sync"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/logger"
)

// LikeState is the like flag and count a view shows for one poem, shared
// between the view and the toggler.
type LikeState struct {
	mu       sync.Mutex
	value    entity.LikeState
	onChange func(entity.LikeState)
}

func NewLikeState(initial entity.LikeState) *LikeState {
	return &LikeState{value: initial}
}

func (s *LikeState) Get() entity.LikeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *LikeState) Set(v entity.LikeState) {
	s.mu.Lock()
	s.value = v
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// OnChange registers fn to run after every Set. Only one observer is kept.
func (s *LikeState) OnChange(fn func(entity.LikeState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type IdentitySource interface {
	Current() entity.Identity
}

// Toggler flips the like of the current user on a poem optimistically and
// rolls back when the API refuses.
type Toggler struct {
	likes   LikeService
	session IdentitySource
	log     logger.Logger
	locks   *keyedMutex
}

func NewToggler(likes LikeService, session IdentitySource, log logger.Logger) *Toggler {
	if log == nil {
		log = logger.Nop()
	}
	return &Toggler{likes: likes, session: session, log: log, locks: newKeyedMutex()}
}

// Toggle returns the state after the attempt. On failure that is the state
// from before the attempt, together with the error. Toggles of the same
// poem run one at a time.
func (t *Toggler) Toggle(ctx context.Context, poemID int64, state *LikeState) (entity.LikeState, error) {
	if t.session.Current().Anonymous() {
		return state.Get(), apperror.ErrLoginRequired
	}

	unlock := t.locks.lock(poemID)
	defer unlock()

	prev := state.Get()
	next := entity.LikeState{Liked: !prev.Liked, Count: prev.Count + 1}
	if prev.Liked {
		next.Count = prev.Count - 1
	}
	state.Set(next)

	var err error
	if next.Liked {
		err = t.likes.Like(ctx, poemID)
	} else {
		err = t.likes.Unlike(ctx, poemID)
	}
	if err != nil {
		state.Set(prev)
		t.log.Warn("like toggle rolled back", map[string]interface{}{
			"poem_id": poemID,
			"liked":   next.Liked,
			"error":   err,
		})
		return prev, err
	}
	return next, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

func (k *keyedMutex) lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
