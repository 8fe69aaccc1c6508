package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/poemhub/internal/bootstrap"
	"anoa.com/poemhub/internal/config"
	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/internal/middleware"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/internal/server"
	"anoa.com/poemhub/internal/session"
	"anoa.com/poemhub/pkg/logger"
	"github.com/gin-gonic/gin"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	repos := repository.NewMemoryRepositories()
	if err := bootstrap.SeedAdminUser(ctx, repos.Users, "admin123", logger.Nop()); err != nil {
		t.Fatal(err)
	}
	if err := bootstrap.SeedPoems(ctx, repos.Poems); err != nil {
		t.Fatal(err)
	}
	srv := server.NewServer(repos, middleware.NewTokenIssuer("test-secret", time.Hour), logger.Nop(), server.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		AppEnv: "test",
		API:    config.APIConfig{BaseURL: ts.URL, Timeout: 5 * time.Second},
		Search: config.SearchConfig{PoemIndex: "poems"},
	}
	var out bytes.Buffer
	a, err := New(cfg, logger.Nop(), WithOutput(&out), WithStorage(session.NewMemoryStorage()))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, &out
}

func navigate(t *testing.T, a *App, path string) string {
	t.Helper()
	got, err := a.Navigate(context.Background(), path)
	if err != nil {
		t.Fatalf("navigate %s: %v", path, err)
	}
	return got
}

func TestAnonymousNavigation(t *testing.T) {
	a, out := newTestApp(t)

	if got := navigate(t, a, "/"); got != "/" {
		t.Fatalf("home rendered at %s", got)
	}
	if !strings.Contains(out.String(), "Ozymandias") || !strings.Contains(out.String(), "/register") {
		t.Fatalf("home output:\n%s", out.String())
	}

	tests := map[string]string{
		"/poems/liked":     "/login",
		"/dashboard":       "/login",
		"/dashboard/admin": "/login",
		"/no/such/page":    "/",
		"/search?q=tyger":  "/search?q=tyger",
		"/poems/2":         "/poems/2",
	}
	for from, want := range tests {
		if got := navigate(t, a, from); got != want {
			t.Errorf("navigate %s ended at %s, want %s", from, got, want)
		}
	}

	navigate(t, a, "/search?q=tyger")
	if found := a.Search.Search(context.Background(), "tyger"); len(found) != 1 || found[0].Title != "The Tyger" {
		t.Fatalf("search = %v", found)
	}
}

func TestAdminLoginDispatch(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	navigate(t, a, "/login")

	next, err := a.Login.Submit(ctx, "admin", "wrong")
	if err == nil || a.Login.Error() == "" {
		t.Fatalf("bad login accepted: %q %v", next, err)
	}

	next, err = a.Login.Submit(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := navigate(t, a, next); got != "/dashboard/admin" {
		t.Fatalf("dashboard dispatched to %s", got)
	}
	if len(a.AdminDash.Poems()) != 3 || len(a.AdminDash.Users()) != 1 {
		t.Fatalf("admin dashboard poems=%d users=%d", len(a.AdminDash.Poems()), len(a.AdminDash.Users()))
	}
	if !strings.Contains(out.String(), "admin@poemhub.local") {
		t.Fatalf("admin output:\n%s", out.String())
	}

	saved, err := a.AdminDash.SavePoem(ctx, entity.Poem{Title: "Sonnet 18", Author: "Shakespeare", Text: "Shall I compare thee", PostDate: "01/01/1609"}, "")
	if err != nil || saved.ID == 0 {
		t.Fatalf("save poem: %v %v", saved, err)
	}
	if len(a.AdminDash.Poems()) != 4 {
		t.Fatalf("poems after save = %d", len(a.AdminDash.Poems()))
	}

	// Admins have no user dashboard.
	if got := navigate(t, a, "/dashboard/user"); got != "/login" {
		t.Fatalf("user dashboard as admin ended at %s", got)
	}
}

func TestRegisterLikeLogout(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()
	navigate(t, a, "/register")

	if _, err := a.Register.Submit(ctx, "alice", "alice@example.com", "secret1", "secret2"); err == nil {
		t.Fatal("mismatched confirmation accepted")
	}
	next, err := a.Register.Submit(ctx, "alice", "alice@example.com", "secret1", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := navigate(t, a, next); got != "/dashboard/user" {
		t.Fatalf("dashboard dispatched to %s", got)
	}
	if id := a.Session.Current(); id.Username != "alice" || id.Role != entity.RoleUser || id.UserID == 0 {
		t.Fatalf("session = %+v", id)
	}

	navigate(t, a, "/poems/1")
	if err := a.Detail.ToggleLike(ctx); err != nil {
		t.Fatalf("like: %v", err)
	}
	if st := a.Detail.LikeState(); !st.Liked || st.Count != 1 {
		t.Fatalf("like state = %+v", st)
	}
	if err := a.Detail.AddComment(ctx, "still standing"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c := a.Detail.Comments(); len(c) != 1 || c[0].Author != "alice" {
		t.Fatalf("comments = %+v", c)
	}

	out.Reset()
	navigate(t, a, "/poems/liked")
	if liked := a.Liked.Poems(); len(liked) != 1 || liked[0].Title != "Ozymandias" {
		t.Fatalf("liked = %+v", liked)
	}
	if !strings.Contains(out.String(), "alice (USER)") {
		t.Fatalf("navbar did not show the session:\n%s", out.String())
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := navigate(t, a, "/poems/liked"); got != "/login" {
		t.Fatalf("liked after logout ended at %s", got)
	}

	// Liking again starts from the login view.
	navigate(t, a, "/poems/1")
	if err := a.Follow(ctx, a.Detail.ToggleLike(ctx)); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if a.Location() != "/login" {
		t.Fatalf("anonymous like went to %s", a.Location())
	}
}

func TestMeiliURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"meili", "http://meili:7700"},
		{"localhost:7700", "http://localhost:7700"},
		{"10.0.0.5:9000", "http://10.0.0.5:9000"},
		{"https://search.example.com", "https://search.example.com"},
		{"http://localhost:7700", "http://localhost:7700"},
		{"::1", "http://[::1]:7700"},
	}
	for _, tt := range tests {
		if got := meiliURL(tt.host); got != tt.want {
			t.Errorf("meiliURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
