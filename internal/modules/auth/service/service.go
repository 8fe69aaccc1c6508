package service

import (
	"context"
	"errors"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/modules/auth/dto"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/token"
	"anoa.com/poemhub/pkg/validator"
)

type AuthService interface {
	// Login exchanges credentials for an identity. It does not touch the
	// session; the caller decides whether to persist.
	Login(ctx context.Context, input dto.LoginInput) (*entity.Identity, error)
	// Register creates a USER account and returns the token the API issued.
	Register(ctx context.Context, input dto.RegisterInput) (string, error)
}

type authService struct {
	api httpclient.API
	log logger.Logger
}

func NewAuthService(api httpclient.API, log logger.Logger) AuthService {
	return &authService{api: api, log: log}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*entity.Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validator.Struct(input); err != nil {
		return nil, &apperror.AuthenticationError{Message: err.Error(), Err: err}
	}

	var resp dto.LoginResponse
	if err := s.api.Post(ctx, "/api/auth/login", input, &resp); err != nil {
		s.log.Warn("login rejected", map[string]interface{}{"username": input.Username, "status": apperror.StatusCode(err)})
		return nil, &apperror.AuthenticationError{Message: failureMessage(err, "login failed"), Err: err}
	}
	if resp.Token == "" {
		return nil, &apperror.AuthenticationError{Message: "login failed: no token in response", Err: apperror.ErrUnexpectedBody}
	}

	claims := token.Decode(resp.Token)
	role, ok := claims.Role()
	if !ok {
		role, ok = entity.ParseRole(resp.Role)
	}
	if !ok {
		role = entity.RoleUser
	}

	id := &entity.Identity{
		Token:    resp.Token,
		Role:     role,
		Email:    resp.Email,
		Username: resp.Username,
	}
	if id.Username == "" {
		id.Username = input.Username
	}
	if uid, ok := claims.UserID(); ok {
		id.UserID = uid
	}
	return id, nil
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (string, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validator.Struct(input); err != nil {
		return "", &apperror.RegistrationError{Message: err.Error(), Err: err}
	}

	req := dto.RegisterRequest{
		Username:        input.Username,
		Email:           input.Email,
		Password:        input.Password,
		ConfirmPassword: input.Password,
		Role:            string(entity.RoleUser),
	}

	var resp dto.RegisterResponse
	if err := s.api.Post(ctx, "/api/auth/register", req, &resp); err != nil {
		s.log.Warn("registration rejected", map[string]interface{}{"username": input.Username, "status": apperror.StatusCode(err)})
		return "", &apperror.RegistrationError{Message: failureMessage(err, "registration failed"), Err: err}
	}
	return resp.Token, nil
}

// failureMessage prefers the text the server sent. Transport failures get
// the fallback since their text is not meant for the form.
func failureMessage(err error, fallback string) string {
	if errors.Is(err, apperror.ErrNetwork) {
		return fallback + ": could not reach the server"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != 0 && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
