package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/poemhub/internal/bootstrap"
	"anoa.com/poemhub/internal/middleware"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/token"
	"github.com/gin-gonic/gin"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	repos   *repository.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := repository.NewMemoryRepositories()
	if err := bootstrap.SeedAdminUser(context.Background(), repos.Users, "admin123", logger.Nop()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	tokens := middleware.NewTokenIssuer("test-secret", time.Hour)
	srv := NewServer(repos, tokens, logger.Nop(), Options{AllowedOrigins: "http://localhost:3000"})
	return &testServer{t: t, handler: srv.Handler(), repos: repos}
}

func (s *testServer) do(method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp.Token
}

func (s *testServer) register(username, email, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password, "confirmPassword": password, "role": "USER",
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp.Token
}

func errorText(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

func TestRegisterThenLogin(t *testing.T) {
	s := newTestServer(t)

	tok := s.register("alice", "alice@example.com", "secret1")
	claims := token.Decode(tok)
	if role, ok := claims.Role(); !ok || role != "USER" {
		t.Fatalf("role claim = %v", claims["role"])
	}
	if _, ok := claims.UserID(); !ok {
		t.Fatal("uid claim missing")
	}
	if claims.Subject() != "alice" {
		t.Fatalf("sub = %q", claims.Subject())
	}

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["token"] == "" || resp["role"] != "USER" || resp["email"] != "alice@example.com" || resp["username"] != "alice" {
		t.Fatalf("login body = %v", resp)
	}

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized || errorText(rec) != "Invalid credentials" {
		t.Fatalf("wrong password: %d %q", rec.Code, errorText(rec))
	}
	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "nobody", "password": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: %d", rec.Code)
	}
}

func TestRegisterRules(t *testing.T) {
	s := newTestServer(t)
	s.register("alice", "alice@example.com", "secret1")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"duplicate username", map[string]string{"username": "alice", "email": "a2@example.com", "password": "secret1"}, http.StatusConflict},
		{"bad email", map[string]string{"username": "bob", "email": "nope", "password": "secret1"}, http.StatusBadRequest},
		{"short password", map[string]string{"username": "bob", "email": "bob@example.com", "password": "123"}, http.StatusBadRequest},
		{"confirmation mismatch", map[string]string{"username": "bob", "email": "bob@example.com", "password": "secret1", "confirmPassword": "secret2"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(http.MethodPost, "/api/auth/register", "", tt.body); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Anonymous callers cannot choose the ADMIN role.
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "mallory", "email": "m@example.com", "password": "secret1", "role": "ADMIN",
	})
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if role, _ := token.Decode(resp.Token).Role(); role != "USER" {
		t.Fatalf("self-registered role = %q", role)
	}

	// An administrator can.
	admin := s.login("admin", "admin123")
	rec = s.do(http.MethodPost, "/api/auth/register", admin, map[string]string{
		"username": "editor", "email": "e@example.com", "password": "secret1", "role": "ADMIN",
	})
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if role, _ := token.Decode(resp.Token).Role(); role != "ADMIN" {
		t.Fatalf("admin-created role = %q", role)
	}
}

func TestPoemsAdminOnlyWrites(t *testing.T) {
	s := newTestServer(t)
	user := s.register("alice", "alice@example.com", "secret1")
	admin := s.login("admin", "admin123")

	poem := map[string]interface{}{"title": "Ode", "author": "Keats", "text": "Thou still", "postDate": "01/05/1819"}

	if rec := s.do(http.MethodPost, "/api/poems", user, poem); rec.Code != http.StatusForbidden {
		t.Fatalf("user create: %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/poems", "", poem); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/poems", admin, poem)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", rec.Code, rec.Body.String())
	}
	var created map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created["id"] != float64(1) {
		t.Fatalf("created = %v", created)
	}

	poem["id"] = 1
	poem["title"] = "Ode on a Grecian Urn"
	if rec := s.do(http.MethodPost, "/api/poems", admin, poem); rec.Code != http.StatusOK {
		t.Fatalf("admin update: %d", rec.Code)
	}

	poem["postDate"] = "1819-05-01"
	if rec := s.do(http.MethodPost, "/api/poems", admin, poem); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/poems/1", "", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("Grecian Urn")) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodDelete, "/api/poems/1", admin, nil)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("delete: %d %q", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/api/poems/1", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/poems/1", admin, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete again: %d", rec.Code)
	}
}

func TestLikes(t *testing.T) {
	s := newTestServer(t)
	bootstrap.SeedPoems(context.Background(), s.repos.Poems)
	alice := s.register("alice", "alice@example.com", "secret1")
	bob := s.register("bob", "bob@example.com", "secret1")

	if rec := s.do(http.MethodPost, "/api/poems/1/like", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous like: %d", rec.Code)
	}
	for _, tok := range []string{alice, alice, bob} {
		if rec := s.do(http.MethodPost, "/api/poems/1/like", tok, nil); rec.Code != http.StatusNoContent {
			t.Fatalf("like: %d", rec.Code)
		}
	}
	if rec := s.do(http.MethodGet, "/api/poems/1/likes", "", nil); rec.Body.String() != "2" {
		t.Fatalf("count = %s", rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/api/poems/1/likes/user", alice, nil); rec.Body.String() != "true" {
		t.Fatalf("has liked = %s", rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/poems/liked", alice, nil)
	var liked []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &liked)
	if len(liked) != 1 || liked[0]["id"] != float64(1) {
		t.Fatalf("liked = %s", rec.Body.String())
	}

	if rec := s.do(http.MethodDelete, "/api/poems/1/like", alice, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("unlike: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/poems/1/likes/user", alice, nil); rec.Body.String() != "false" {
		t.Fatalf("has liked after unlike = %s", rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/api/poems/99/like", alice, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("like missing poem: %d", rec.Code)
	}
}

func TestCommentsAuthorOnly(t *testing.T) {
	s := newTestServer(t)
	bootstrap.SeedPoems(context.Background(), s.repos.Poems)
	alice := s.register("alice", "alice@example.com", "secret1")
	bob := s.register("bob", "bob@example.com", "secret1")
	admin := s.login("admin", "admin123")

	rec := s.do(http.MethodPost, "/api/comments", alice, map[string]interface{}{"poemId": 2, "content": "lovely"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var c map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &c)
	if c["author"] != "alice" || c["authorId"] == nil || c["commentDate"] == "" {
		t.Fatalf("comment = %v", c)
	}

	if rec := s.do(http.MethodPut, "/api/comments/1", bob, map[string]string{"content": "mine now"}); rec.Code != http.StatusForbidden {
		t.Fatalf("bob edit: %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/api/comments/1", alice, map[string]string{"content": "lovelier"}); rec.Code != http.StatusOK {
		t.Fatalf("alice edit: %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/comments", alice, map[string]interface{}{"poemId": 42, "content": "?"}); rec.Code != http.StatusNotFound {
		t.Fatalf("comment on missing poem: %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/comments/poem/2", "", nil)
	if !bytes.Contains(rec.Body.Bytes(), []byte("lovelier")) {
		t.Fatalf("list = %s", rec.Body.String())
	}

	if rec := s.do(http.MethodDelete, "/api/comments/1", admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete: %d", rec.Code)
	}
}

func TestProfilesAndAccounts(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice", "alice@example.com", "secret1")
	s.register("bob", "bob@example.com", "secret1")
	admin := s.login("admin", "admin123")

	profile := map[string]string{"firstName": "Alice", "lastName": "Liddell", "userEmail": "alice@example.com"}
	if rec := s.do(http.MethodPost, "/api/profile", alice, profile); rec.Code != http.StatusOK {
		t.Fatalf("save own profile: %d %s", rec.Code, rec.Body.String())
	}
	profile["userEmail"] = "bob@example.com"
	if rec := s.do(http.MethodPost, "/api/profile", alice, profile); rec.Code != http.StatusForbidden {
		t.Fatalf("save other profile: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/profile", alice, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("list profiles as user: %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/profile/bob@example.com", admin, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing profile: %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/api/auth/user/email/alice@example.com", alice, nil)
	var me map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &me)
	if rec.Code != http.StatusOK || me["username"] != "alice" || me["password"] != nil {
		t.Fatalf("own account: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/api/auth/user/email/bob@example.com", alice, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("other account: %d", rec.Code)
	}

	id := int(me["id"].(float64))
	update := map[string]string{"username": "alice", "email": "alice@new.example.com", "role": "ADMIN"}
	rec = s.do(http.MethodPut, "/api/auth/"+itoa(id), alice, update)
	var updated map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if rec.Code != http.StatusOK || updated["email"] != "alice@new.example.com" || updated["role"] != "USER" {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	// The profile moved with the email.
	if rec := s.do(http.MethodGet, "/api/profile/alice@new.example.com", admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("profile after email change: %d", rec.Code)
	}

	if rec := s.do(http.MethodDelete, "/api/auth/"+itoa(id), alice, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user delete: %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/auth/"+itoa(id), admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete: %d", rec.Code)
	}
	// Tokens of deleted users stop working.
	if rec := s.do(http.MethodGet, "/api/poems/liked", alice, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user token: %d", rec.Code)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCommentCooldown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repos := repository.NewMemoryRepositories()
	bootstrap.SeedPoems(context.Background(), repos.Poems)
	srv := NewServer(repos, middleware.NewTokenIssuer("test-secret", time.Hour), logger.Nop(), Options{CommentCooldown: time.Minute})
	s := &testServer{t: t, handler: srv.Handler(), repos: repos}

	alice := s.register("alice", "alice@example.com", "secret1")
	body := map[string]interface{}{"poemId": 1, "content": "first"}
	if rec := s.do(http.MethodPost, "/api/comments", alice, body); rec.Code != http.StatusCreated {
		t.Fatalf("first comment: %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/comments", alice, body)
	if rec.Code != http.StatusTooManyRequests || errorText(rec) == "" {
		t.Fatalf("second comment: %d %s", rec.Code, rec.Body.String())
	}
}
