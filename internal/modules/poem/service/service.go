package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/validator"
)

type PoemService interface {
	ListAll(ctx context.Context) ([]entity.Poem, error)
	// ListLiked returns the poems the session user has liked.
	ListLiked(ctx context.Context) ([]entity.Poem, error)
	GetByID(ctx context.Context, id int64) (*entity.Poem, error)
	// Save creates the poem when ID is 0 and updates it otherwise.
	Save(ctx context.Context, poem entity.Poem) (*entity.Poem, error)
	Delete(ctx context.Context, id int64) error
}

type poemService struct {
	api httpclient.API
}

func NewPoemService(api httpclient.API) PoemService {
	return &poemService{api: api}
}

func (s *poemService) ListAll(ctx context.Context) ([]entity.Poem, error) {
	var poems []entity.Poem
	if err := s.api.Get(ctx, "/api/poems", &poems); err != nil {
		return nil, err
	}
	return poems, nil
}

func (s *poemService) ListLiked(ctx context.Context) ([]entity.Poem, error) {
	var poems []entity.Poem
	if err := s.api.Get(ctx, "/api/poems/liked", &poems); err != nil {
		return nil, err
	}
	return poems, nil
}

func (s *poemService) GetByID(ctx context.Context, id int64) (*entity.Poem, error) {
	var poem entity.Poem
	if err := s.api.Get(ctx, fmt.Sprintf("/api/poems/%d", id), &poem); err != nil {
		return nil, err
	}
	return &poem, nil
}

func (s *poemService) Save(ctx context.Context, poem entity.Poem) (*entity.Poem, error) {
	poem.Title = strings.TrimSpace(poem.Title)
	poem.Author = strings.TrimSpace(poem.Author)
	poem.PostDate = strings.TrimSpace(poem.PostDate)
	if err := validator.Struct(poem); err != nil {
		return nil, err
	}

	var saved entity.Poem
	if err := s.api.Post(ctx, "/api/poems", poem, &saved); err != nil {
		return nil, err
	}
	if saved.ID == 0 {
		// Some servers answer an upsert with an empty body.
		saved = poem
	}
	return &saved, nil
}

func (s *poemService) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/poems/%d", id))
}
