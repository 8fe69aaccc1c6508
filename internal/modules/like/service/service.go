package service

import (
	"context"
	"fmt"

	"anoa.com/poemhub/pkg/httpclient"
)

// LikeService talks to the like endpoints of one poem. Like and Unlike act
// on behalf of the bearer of the session token.
type LikeService interface {
	Count(ctx context.Context, poemID int64) (int64, error)
	HasLiked(ctx context.Context, poemID int64) (bool, error)
	Like(ctx context.Context, poemID int64) error
	Unlike(ctx context.Context, poemID int64) error
}

type likeService struct {
	api httpclient.API
}

func NewLikeService(api httpclient.API) LikeService {
	return &likeService{api: api}
}

func (s *likeService) Count(ctx context.Context, poemID int64) (int64, error) {
	var count int64
	if err := s.api.Get(ctx, fmt.Sprintf("/api/poems/%d/likes", poemID), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *likeService) HasLiked(ctx context.Context, poemID int64) (bool, error) {
	var liked bool
	if err := s.api.Get(ctx, fmt.Sprintf("/api/poems/%d/likes/user", poemID), &liked); err != nil {
		return false, err
	}
	return liked, nil
}

func (s *likeService) Like(ctx context.Context, poemID int64) error {
	return s.api.Post(ctx, fmt.Sprintf("/api/poems/%d/like", poemID), nil, nil)
}

func (s *likeService) Unlike(ctx context.Context, poemID int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/poems/%d/like", poemID))
}
