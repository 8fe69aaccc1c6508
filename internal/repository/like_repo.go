package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"anoa.com/poemhub/internal/model"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository keeps which users like which poem. Like and Unlike are
// idempotent.
type LikeRepository interface {
	Like(ctx context.Context, poemID, userID int64) error
	Unlike(ctx context.Context, poemID, userID int64) error
	Count(ctx context.Context, poemID int64) (int64, error)
	IsLiked(ctx context.Context, poemID, userID int64) (bool, error)
	LikedPoemIDs(ctx context.Context, userID int64) ([]int64, error)
	DeleteByPoem(ctx context.Context, poemID int64) error
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Like(ctx context.Context, poemID, userID int64) error {
	like := model.PoemLike{PoemID: poemID, UserID: userID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
}

func (r *likeRepository) Unlike(ctx context.Context, poemID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("poem_id = ? AND user_id = ?", poemID, userID).
		Delete(&model.PoemLike{}).Error
}

func (r *likeRepository) Count(ctx context.Context, poemID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PoemLike{}).Where("poem_id = ?", poemID).Count(&count).Error
	return count, err
}

func (r *likeRepository) IsLiked(ctx context.Context, poemID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PoemLike{}).
		Where("poem_id = ? AND user_id = ?", poemID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *likeRepository) LikedPoemIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.PoemLike{}).
		Where("user_id = ?", userID).
		Order("poem_id").
		Pluck("poem_id", &ids).Error
	return ids, err
}

func (r *likeRepository) DeleteByPoem(ctx context.Context, poemID int64) error {
	return r.db.WithContext(ctx).Delete(&model.PoemLike{}, "poem_id = ?", poemID).Error
}

type memoryLikeRepository struct {
	mu    sync.RWMutex
	likes map[int64]map[int64]struct{}
}

func NewMemoryLikeRepository() LikeRepository {
	return &memoryLikeRepository{likes: make(map[int64]map[int64]struct{})}
}

func (r *memoryLikeRepository) Like(_ context.Context, poemID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, ok := r.likes[poemID]
	if !ok {
		users = make(map[int64]struct{})
		r.likes[poemID] = users
	}
	users[userID] = struct{}{}
	return nil
}

func (r *memoryLikeRepository) Unlike(_ context.Context, poemID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes[poemID], userID)
	return nil
}

func (r *memoryLikeRepository) Count(_ context.Context, poemID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.likes[poemID])), nil
}

func (r *memoryLikeRepository) IsLiked(_ context.Context, poemID, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.likes[poemID][userID]
	return ok, nil
}

func (r *memoryLikeRepository) LikedPoemIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for poemID, users := range r.likes {
		if _, ok := users[userID]; ok {
			ids = append(ids, poemID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memoryLikeRepository) DeleteByPoem(_ context.Context, poemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes, poemID)
	return nil
}

// redisLikeRepository keeps two sets per like: the users of a poem and the
// poems of a user.
type redisLikeRepository struct {
	client *redis.Client
}

func NewRedisLikeRepository(client *redis.Client) LikeRepository {
	return &redisLikeRepository{client: client}
}

func poemLikesKey(poemID int64) string {
	return fmt.Sprintf("poem_likes:%d", poemID)
}

func userLikesKey(userID int64) string {
	return fmt.Sprintf("user_likes:%d", userID)
}

func (r *redisLikeRepository) Like(ctx context.Context, poemID, userID int64) error {
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, poemLikesKey(poemID), userID)
	pipe.SAdd(ctx, userLikesKey(userID), poemID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisLikeRepository) Unlike(ctx context.Context, poemID, userID int64) error {
	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, poemLikesKey(poemID), userID)
	pipe.SRem(ctx, userLikesKey(userID), poemID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisLikeRepository) Count(ctx context.Context, poemID int64) (int64, error) {
	return r.client.SCard(ctx, poemLikesKey(poemID)).Result()
}

func (r *redisLikeRepository) IsLiked(ctx context.Context, poemID, userID int64) (bool, error) {
	return r.client.SIsMember(ctx, poemLikesKey(poemID), userID).Result()
}

func (r *redisLikeRepository) LikedPoemIDs(ctx context.Context, userID int64) ([]int64, error) {
	members, err := r.client.SMembers(ctx, userLikesKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *redisLikeRepository) DeleteByPoem(ctx context.Context, poemID int64) error {
	key := poemLikesKey(poemID)
	users, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, u := range users {
		pipe.SRem(ctx, "user_likes:"+u, poemID)
	}
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}
