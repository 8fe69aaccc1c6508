package repository

import (
	"context"
	"sort"
	"sync"

	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/pkg/apperror"
	"gorm.io/gorm"
)

type PoemRepository interface {
	FindAll(ctx context.Context) ([]*model.Poem, error)
	FindByID(ctx context.Context, id int64) (*model.Poem, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*model.Poem, error)
	// Save creates the poem when its ID is 0 and replaces it otherwise.
	Save(ctx context.Context, poem *model.Poem) error
	Delete(ctx context.Context, id int64) error
}

type poemRepository struct {
	db *gorm.DB
}

func NewPoemRepository(db *gorm.DB) PoemRepository {
	return &poemRepository{db: db}
}

func (r *poemRepository) FindAll(ctx context.Context) ([]*model.Poem, error) {
	var poems []*model.Poem
	if err := r.db.WithContext(ctx).Order("id").Find(&poems).Error; err != nil {
		return nil, err
	}
	return poems, nil
}

func (r *poemRepository) FindByID(ctx context.Context, id int64) (*model.Poem, error) {
	var poem model.Poem
	if err := r.db.WithContext(ctx).First(&poem, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &poem, nil
}

func (r *poemRepository) FindByIDs(ctx context.Context, ids []int64) ([]*model.Poem, error) {
	var poems []*model.Poem
	if len(ids) == 0 {
		return poems, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&poems).Error; err != nil {
		return nil, err
	}
	return poems, nil
}

func (r *poemRepository) Save(ctx context.Context, poem *model.Poem) error {
	if poem.ID == 0 {
		return r.db.WithContext(ctx).Create(poem).Error
	}
	if _, err := r.FindByID(ctx, poem.ID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(poem).Error
}

func (r *poemRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Poem{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return tx.Delete(&model.Comment{}, "poem_id = ?", id).Error
	})
}

type memoryPoemRepository struct {
	mu     sync.RWMutex
	poems  map[int64]model.Poem
	nextID int64
}

func NewMemoryPoemRepository() PoemRepository {
	return &memoryPoemRepository{poems: make(map[int64]model.Poem), nextID: 1}
}

func (r *memoryPoemRepository) FindAll(_ context.Context) ([]*model.Poem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	poems := make([]*model.Poem, 0, len(r.poems))
	for _, p := range r.poems {
		p := p
		poems = append(poems, &p)
	}
	sort.Slice(poems, func(i, j int) bool { return poems[i].ID < poems[j].ID })
	return poems, nil
}

func (r *memoryPoemRepository) FindByID(_ context.Context, id int64) (*model.Poem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.poems[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &p, nil
}

func (r *memoryPoemRepository) FindByIDs(ctx context.Context, ids []int64) ([]*model.Poem, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	all, _ := r.FindAll(ctx)
	poems := make([]*model.Poem, 0, len(ids))
	for _, p := range all {
		if want[p.ID] {
			poems = append(poems, p)
		}
	}
	return poems, nil
}

func (r *memoryPoemRepository) Save(_ context.Context, poem *model.Poem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if poem.ID == 0 {
		poem.ID = r.nextID
		r.nextID++
	} else if _, ok := r.poems[poem.ID]; !ok {
		return apperror.ErrNotFound
	}
	r.poems[poem.ID] = *poem
	return nil
}

func (r *memoryPoemRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.poems[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.poems, id)
	return nil
}
