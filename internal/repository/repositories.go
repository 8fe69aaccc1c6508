package repository

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Repositories bundles the stores the stub server works with.
type Repositories struct {
	Users    UserRepository
	Profiles ProfileRepository
	Poems    PoemRepository
	Comments CommentRepository
	Likes    LikeRepository
}

func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Users:    NewMemoryUserRepository(),
		Profiles: NewMemoryProfileRepository(),
		Poems:    NewMemoryPoemRepository(),
		Comments: NewMemoryCommentRepository(),
		Likes:    NewMemoryLikeRepository(),
	}
}

func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Profiles: NewProfileRepository(db),
		Poems:    NewPoemRepository(db),
		Comments: NewCommentRepository(db),
		Likes:    NewLikeRepository(db),
	}
}

// WithRedisLikes keeps like membership in redis sets instead.
func (r *Repositories) WithRedisLikes(client *redis.Client) *Repositories {
	r.Likes = NewRedisLikeRepository(client)
	return r
}
