package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	FindAll(ctx context.Context) ([]*model.Profile, error)
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	// Save inserts the profile or replaces the one with the same email.
	Save(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, email string) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindAll(ctx context.Context) ([]*model.Profile, error) {
	var profiles []*model.Profile
	if err := r.db.WithContext(ctx).Order("user_email").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_email = ?", email).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_email"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "phone", "updated_at"}),
		}).
		Create(profile).Error
}

func (r *profileRepository) Delete(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Delete(&model.Profile{}, "user_email = ?", email)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

type memoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{profiles: make(map[string]model.Profile)}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryProfileRepository) FindAll(_ context.Context) ([]*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		p := p
		profiles = append(profiles, &p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserEmail < profiles[j].UserEmail })
	return profiles, nil
}

func (r *memoryProfileRepository) FindByEmail(_ context.Context, email string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[emailKey(email)]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepository) Save(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[emailKey(profile.UserEmail)] = *profile
	return nil
}

func (r *memoryProfileRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := emailKey(email)
	if _, ok := r.profiles[key]; !ok {
		return apperror.ErrNotFound
	}
	delete(r.profiles, key)
	return nil
}
