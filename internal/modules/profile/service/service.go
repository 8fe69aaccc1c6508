package service

import (
	"context"
	"net/url"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/validator"
)

// ProfileService manages profiles, keyed by the owner's email.
type ProfileService interface {
	ListAll(ctx context.Context) ([]entity.Profile, error)
	GetByEmail(ctx context.Context, email string) (*entity.Profile, error)
	// Save creates or replaces the profile of profile.UserEmail.
	Save(ctx context.Context, profile entity.Profile) (*entity.Profile, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type profileService struct {
	api httpclient.API
}

func NewProfileService(api httpclient.API) ProfileService {
	return &profileService{api: api}
}

func (s *profileService) ListAll(ctx context.Context) ([]entity.Profile, error) {
	var profiles []entity.Profile
	if err := s.api.Get(ctx, "/api/profile", &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *profileService) GetByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	var p entity.Profile
	if err := s.api.Get(ctx, "/api/profile/"+url.PathEscape(strings.TrimSpace(email)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *profileService) Save(ctx context.Context, profile entity.Profile) (*entity.Profile, error) {
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.Phone = strings.TrimSpace(profile.Phone)
	profile.UserEmail = strings.TrimSpace(profile.UserEmail)
	if err := validator.Struct(profile); err != nil {
		return nil, err
	}

	var saved entity.Profile
	if err := s.api.Post(ctx, "/api/profile", profile, &saved); err != nil {
		return nil, err
	}
	if saved.UserEmail == "" {
		saved = profile
	}
	return &saved, nil
}

func (s *profileService) DeleteByEmail(ctx context.Context, email string) error {
	if err := validator.Var("Email", email, "required,email"); err != nil {
		return err
	}
	return s.api.Delete(ctx, "/api/profile/"+url.PathEscape(email))
}
