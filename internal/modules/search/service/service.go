package service

import (
	"context"
	"strings"
	"sync"

	"anoa.com/poemhub/internal/entity"
)

// PoemSearcher finds poems by title or author. Index replaces nothing; it
// adds or updates the given poems.
type PoemSearcher interface {
	Index(ctx context.Context, poems []entity.Poem) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]entity.Poem, error)
}

type memorySearcher struct {
	mu    sync.RWMutex
	poems map[int64]entity.Poem
	order []int64
}

// NewMemorySearcher matches case-insensitive substrings of title or author,
// returning poems in the order they were first indexed.
func NewMemorySearcher() PoemSearcher {
	return &memorySearcher{poems: make(map[int64]entity.Poem)}
}

func (m *memorySearcher) Index(_ context.Context, poems []entity.Poem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range poems {
		if _, ok := m.poems[p.ID]; !ok {
			m.order = append(m.order, p.ID)
		}
		m.poems[p.ID] = p
	}
	return nil
}

func (m *memorySearcher) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.poems[id]; !ok {
		return nil
	}
	delete(m.poems, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memorySearcher) Search(_ context.Context, query string) ([]entity.Poem, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entity.Poem
	for _, id := range m.order {
		p := m.poems[id]
		if Matches(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Matches reports whether the lower-cased query q occurs in the title or
// author of p.
func Matches(p entity.Poem, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Author), q)
}
