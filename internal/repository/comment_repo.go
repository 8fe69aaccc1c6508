package repository

import (
	"context"
	"sort"
	"sync"

	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/pkg/apperror"
	"gorm.io/gorm"
)

type CommentRepository interface {
	FindByPoem(ctx context.Context, poemID int64) ([]*model.Comment, error)
	FindByID(ctx context.Context, id int64) (*model.Comment, error)
	Create(ctx context.Context, comment *model.Comment) error
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id int64) error
	DeleteByPoem(ctx context.Context, poemID int64) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) FindByPoem(ctx context.Context, poemID int64) ([]*model.Comment, error) {
	var comments []*model.Comment
	if err := r.db.WithContext(ctx).
		Where("poem_id = ?", poemID).
		Order("id").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) Update(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *commentRepository) DeleteByPoem(ctx context.Context, poemID int64) error {
	return r.db.WithContext(ctx).Delete(&model.Comment{}, "poem_id = ?", poemID).Error
}

type memoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[int64]model.Comment
	nextID   int64
}

func NewMemoryCommentRepository() CommentRepository {
	return &memoryCommentRepository{comments: make(map[int64]model.Comment), nextID: 1}
}

func (r *memoryCommentRepository) FindByPoem(_ context.Context, poemID int64) ([]*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comments := []*model.Comment{}
	for _, c := range r.comments {
		if c.PoemID == poemID {
			c := c
			comments = append(comments, &c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r *memoryCommentRepository) FindByID(_ context.Context, id int64) (*model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &c, nil
}

func (r *memoryCommentRepository) Create(_ context.Context, comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	r.comments[comment.ID] = *comment
	return nil
}

func (r *memoryCommentRepository) Update(_ context.Context, comment *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[comment.ID]; !ok {
		return apperror.ErrNotFound
	}
	r.comments[comment.ID] = *comment
	return nil
}

func (r *memoryCommentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *memoryCommentRepository) DeleteByPoem(_ context.Context, poemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.comments {
		if c.PoemID == poemID {
			delete(r.comments, id)
		}
	}
	return nil
}
