package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/modules/auth/dto"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

func newTestService(t *testing.T, h http.HandlerFunc) AuthService {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewAuthService(httpclient.New(srv.URL, nil), logger.Nop())
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoginRoleResolution(t *testing.T) {
	tests := []struct {
		name     string
		claims   jwt.MapClaims
		bodyRole string
		want     entity.Role
	}{
		{"claim wins", jwt.MapClaims{"sub": "bob", "role": "ADMIN"}, "USER", entity.RoleAdmin},
		{"body role when claim missing", jwt.MapClaims{"sub": "bob"}, "ADMIN", entity.RoleAdmin},
		{"default user", jwt.MapClaims{"sub": "bob"}, "", entity.RoleUser},
		{"unknown claim falls through", jwt.MapClaims{"sub": "bob", "role": "ROOT"}, "", entity.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := sign(t, tt.claims)
			svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(dto.LoginResponse{Token: tok, Role: tt.bodyRole})
			})

			id, err := svc.Login(context.Background(), dto.LoginInput{Username: "bob", Password: "pw123456"})
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if id.Role != tt.want {
				t.Fatalf("role = %q, want %q", id.Role, tt.want)
			}
			if id.Token != tok || id.Username != "bob" {
				t.Fatalf("identity = %+v", id)
			}
		})
	}
}

func TestLoginUserIDFromClaims(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"sub": "bob", "uid": 7, "role": "USER"})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dto.LoginResponse{Token: tok, Email: "bob@example.com", Username: "bob"})
	})

	id, err := svc.Login(context.Background(), dto.LoginInput{Username: "bob", Password: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != 7 || id.Email != "bob@example.com" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestLoginRejected(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "Invalid credentials")
	})

	_, err := svc.Login(context.Background(), dto.LoginInput{Username: "alice", Password: "wrong"})
	var authErr *apperror.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %T %v", err, err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Fatalf("message = %q", authErr.Message)
	}
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatal("should wrap ErrUnauthorized")
	}
}

func TestLoginEmptyTokenIsFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"role":"ADMIN"}`)
	})
	_, err := svc.Login(context.Background(), dto.LoginInput{Username: "a", Password: "b"})
	var authErr *apperror.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := svc.Login(context.Background(), dto.LoginInput{Username: "  ", Password: ""})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Fatal("request sent for invalid input")
	}
}

func TestRegisterRequestShape(t *testing.T) {
	var got map[string]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"token":"new-token"}`)
	})

	tok, err := svc.Register(context.Background(), dto.RegisterInput{
		Username: "carol", Email: "carol@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tok != "new-token" {
		t.Fatalf("token = %q", tok)
	}
	if got["confirmPassword"] != "secret1" || got["role"] != "USER" || got["email"] != "carol@example.com" {
		t.Fatalf("request body = %v", got)
	}
}

func TestRegisterErrors(t *testing.T) {
	t.Run("mismatched confirmation", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request sent for mismatched passwords")
		})
		_, err := svc.Register(context.Background(), dto.RegisterInput{
			Username: "carol", Email: "carol@example.com", Password: "secret1", ConfirmPassword: "secret2",
		})
		var regErr *apperror.RegistrationError
		if !errors.As(err, &regErr) {
			t.Fatalf("expected RegistrationError, got %v", err)
		}
		if regErr.Message != "Password confirmation does not match" {
			t.Fatalf("message = %q", regErr.Message)
		}
	})

	t.Run("server conflict", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, `{"error":"username already taken"}`)
		})
		_, err := svc.Register(context.Background(), dto.RegisterInput{
			Username: "carol", Email: "carol@example.com", Password: "secret1",
		})
		var regErr *apperror.RegistrationError
		if !errors.As(err, &regErr) || regErr.Message != "username already taken" {
			t.Fatalf("err = %v", err)
		}
		if !errors.Is(err, apperror.ErrConflict) {
			t.Fatal("should wrap ErrConflict")
		}
	})
}
