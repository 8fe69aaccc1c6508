package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/poemhub/pkg/apperror"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`3`))
	}))
	defer srv.Close()

	var count int64
	c := New(srv.URL, staticToken("abc.def.ghi"))
	if err := c.Get(context.Background(), "/api/poems/1/likes", &count); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d", count)
	}
	if gotAuth != "Bearer abc.def.ghi" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("X-Request-ID missing")
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Errorf("Authorization header sent for anonymous session")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := New(srv.URL, staticToken("")).Get(context.Background(), "/api/poems", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"plain text", http.StatusUnauthorized, "Invalid credentials", "Invalid credentials", apperror.ErrUnauthorized},
		{"json error field", http.StatusForbidden, `{"error":"admin access required"}`, "admin access required", apperror.ErrForbidden},
		{"json message field", http.StatusConflict, `{"message":"username already exists"}`, "username already exists", apperror.ErrConflict},
		{"json string", http.StatusBadRequest, `"Invalid date"`, "Invalid date", apperror.ErrBadRequest},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error", apperror.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := New(srv.URL, nil).Post(context.Background(), "/x", map[string]string{"a": "b"}, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Fatalf("message = %q, want %q", err.Error(), tt.want)
			}
			if !errors.Is(err, tt.is) {
				t.Fatalf("errors.Is(%v) = false", tt.is)
			}
			if apperror.StatusCode(err) != tt.status {
				t.Fatalf("status = %d", apperror.StatusCode(err))
			}
		})
	}
}

func TestDeleteContract(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no content", http.StatusNoContent, "", nil},
		{"ok without body", http.StatusOK, "", nil},
		{"ok with body", http.StatusOK, `{"deleted":true}`, apperror.ErrUnexpectedBody},
		{"not found", http.StatusNotFound, "missing", apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/api/poems/42" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := New(srv.URL, nil).Delete(context.Background(), "/api/poems/42")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, nil).Get(context.Background(), "/api/poems", nil)
	if !errors.Is(err, apperror.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestInvalidJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := New(srv.URL, nil).Get(context.Background(), "/api/poems/1", &out)
	if !errors.Is(err, apperror.ErrUnexpectedBody) {
		t.Fatalf("expected ErrUnexpectedBody, got %v", err)
	}
}
