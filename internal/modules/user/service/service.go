package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/validator"
)

// UserService is account administration. Apart from GetByEmail and Update
// of one's own account, the API reserves it for admins.
type UserService interface {
	ListAll(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user entity.User) error
	Update(ctx context.Context, id int64, user entity.User) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	api httpclient.API
}

func NewUserService(api httpclient.API) UserService {
	return &userService{api: api}
}

func (s *userService) ListAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := s.api.Get(ctx, "/api/auth/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	if err := s.api.Get(ctx, fmt.Sprintf("/api/auth/%d", id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := s.api.Get(ctx, "/api/auth/user/email/"+url.PathEscape(strings.TrimSpace(email)), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create registers an account with the given role. The response token
// belongs to the new account and is discarded.
func (s *userService) Create(ctx context.Context, user entity.User) error {
	user = normalize(user)
	if user.Role == "" {
		user.Role = entity.RoleUser
	}
	if user.ConfirmPassword == "" {
		user.ConfirmPassword = user.Password
	}
	if err := validator.Var("Password", user.Password, "required,min=6"); err != nil {
		return err
	}
	if err := validator.Struct(user); err != nil {
		return err
	}
	return s.api.Post(ctx, "/api/auth/register", user, nil)
}

// Update sends the account fields. An empty password leaves the password
// unchanged.
func (s *userService) Update(ctx context.Context, id int64, user entity.User) (*entity.User, error) {
	user = normalize(user)
	user.ID = id
	if user.Password != "" && user.ConfirmPassword == "" {
		user.ConfirmPassword = user.Password
	}
	if err := validator.Struct(user); err != nil {
		return nil, err
	}

	var updated entity.User
	if err := s.api.Put(ctx, fmt.Sprintf("/api/auth/%d", id), user, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = user
		updated.Password, updated.ConfirmPassword = "", ""
	}
	return &updated, nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/auth/%d", id))
}

func normalize(u entity.User) entity.User {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if r, ok := entity.ParseRole(string(u.Role)); ok {
		u.Role = r
	}
	return u
}
