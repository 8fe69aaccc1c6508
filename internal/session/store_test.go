package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	tok := signedToken(t, jwt.MapClaims{"sub": "alice", "uid": 12, "role": "USER"})

	tests := []struct {
		name     string
		values   map[string]string
		wantAnon bool
		wantRole entity.Role
	}{
		{"nothing stored", nil, true, ""},
		{"token only", map[string]string{KeyToken: tok}, true, ""},
		{"role only", map[string]string{KeyRole: "ADMIN"}, true, ""},
		{"unknown role", map[string]string{KeyToken: tok, KeyRole: "SUPERUSER"}, true, ""},
		{"complete", map[string]string{KeyToken: tok, KeyRole: "USER", KeyEmail: "alice@example.com", KeyUsername: "alice"}, false, entity.RoleUser},
		{"admin without optional keys", map[string]string{KeyToken: tok, KeyRole: "ADMIN"}, false, entity.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			for k, v := range tt.values {
				storage.Set(ctx, k, v)
			}
			s := NewStore(storage, logger.Nop())
			if s.Restored() {
				t.Fatal("restored before Restore")
			}
			if err := s.Restore(ctx); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			if !s.Restored() {
				t.Fatal("Restored() = false after Restore")
			}
			select {
			case <-s.Ready():
			default:
				t.Fatal("Ready not closed")
			}

			id := s.Current()
			if id.Anonymous() != tt.wantAnon {
				t.Fatalf("anonymous = %v, want %v", id.Anonymous(), tt.wantAnon)
			}
			if !tt.wantAnon {
				if id.Role != tt.wantRole {
					t.Fatalf("role = %q", id.Role)
				}
				if id.UserID != 12 {
					t.Fatalf("user id = %d", id.UserID)
				}
			}
		})
	}
}

// failingStorage breaks reads or removals on demand.
type failingStorage struct {
	*MemoryStorage
	failGet    bool
	failRemove bool
}

var errBroken = errors.New("disk on fire")

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errBroken
	}
	return f.MemoryStorage.Get(ctx, key)
}

func (f *failingStorage) Remove(ctx context.Context, keys ...string) error {
	if f.failRemove {
		return errBroken
	}
	return f.MemoryStorage.Remove(ctx, keys...)
}

func TestRestoreFailureStillMarksRestored(t *testing.T) {
	s := NewStore(&failingStorage{MemoryStorage: NewMemoryStorage(), failGet: true}, logger.Nop())
	if err := s.Restore(context.Background()); !errors.Is(err, errBroken) {
		t.Fatalf("err = %v", err)
	}
	if !s.Restored() || !s.Current().Anonymous() {
		t.Fatal("store must be restored and anonymous")
	}
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, logger.Nop())

	var seen []entity.Identity
	unsubscribe := s.Subscribe(func(id entity.Identity) { seen = append(seen, id) })

	if err := s.Login(ctx, entity.Identity{Token: "t1", Username: "alice"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := s.Current(); got.Role != entity.RoleUser || got.Username != "alice" {
		t.Fatalf("current = %+v", got)
	}
	if s.Token() != "t1" {
		t.Fatalf("token = %q", s.Token())
	}
	if v, _, _ := storage.Get(ctx, KeyRole); v != "USER" {
		t.Fatalf("persisted role = %q", v)
	}
	if _, ok, _ := storage.Get(ctx, KeyEmail); ok {
		t.Fatal("empty email must not be persisted")
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !s.Current().Anonymous() || s.Token() != "" {
		t.Fatal("still logged in after logout")
	}
	for _, k := range allKeys {
		if _, ok, _ := storage.Get(ctx, k); ok {
			t.Fatalf("%s still persisted", k)
		}
	}

	unsubscribe()
	s.Login(ctx, entity.Identity{Token: "t2"})

	if len(seen) != 2 {
		t.Fatalf("notifications = %d, want 2", len(seen))
	}
	if seen[0].Username != "alice" || !seen[1].Anonymous() {
		t.Fatalf("notifications = %+v", seen)
	}
}

func TestLoginDropsStaleOptionalKeys(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, logger.Nop())

	s.Login(ctx, entity.Identity{Token: "t1", Email: "alice@example.com", Username: "alice"})
	s.Login(ctx, entity.Identity{Token: "t2", Role: entity.RoleAdmin})

	if _, ok, _ := storage.Get(ctx, KeyEmail); ok {
		t.Fatal("previous email survived a new login")
	}
	if v, _, _ := storage.Get(ctx, KeyRole); v != "ADMIN" {
		t.Fatalf("role = %q", v)
	}
}

func TestLogoutClearsMemoryWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{MemoryStorage: NewMemoryStorage()}
	s := NewStore(storage, logger.Nop())
	if err := s.Login(ctx, entity.Identity{Token: "t", Role: entity.RoleAdmin}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	storage.failRemove = true
	if err := s.Logout(ctx); !errors.Is(err, errBroken) {
		t.Fatalf("err = %v", err)
	}
	if !s.Current().Anonymous() {
		t.Fatal("identity kept after failed logout")
	}
}

func TestDurableBackendsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	backends := []struct {
		name string
		open func() (Storage, error)
	}{
		{"sqlite", func() (Storage, error) { return NewSQLiteStorage(filepath.Join(dir, "session.db")) }},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()

			first, err := b.open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if err := NewStore(first, logger.Nop()).Login(ctx, entity.Identity{Token: "tok", Role: entity.RoleAdmin, Username: "root"}); err != nil {
				t.Fatalf("Login: %v", err)
			}
			if c, ok := first.(interface{ Close() error }); ok {
				c.Close()
			}

			second, err := b.open()
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			s := NewStore(second, logger.Nop())
			if err := s.Restore(ctx); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			got := s.Current()
			if got.Token != "tok" || got.Role != entity.RoleAdmin || got.Username != "root" {
				t.Fatalf("restored %+v", got)
			}

			if err := s.Logout(ctx); err != nil {
				t.Fatalf("Logout: %v", err)
			}
			if _, ok, _ := second.Get(ctx, KeyToken); ok {
				t.Fatal("token survived logout")
			}
		})
	}
}

func TestOpenStorageDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	st, err := OpenStorage("", path, "", "")
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	db, ok := st.(*SQLiteStorage)
	if !ok {
		t.Fatalf("default backend = %T", st)
	}
	defer db.Close()

	if err := db.Set(context.Background(), KeyToken, "tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session database not created: %v", err)
	}
}

func TestOpenStorageUnknownBackend(t *testing.T) {
	for _, backend := range []string{"floppy", "file"} {
		if _, err := OpenStorage(backend, "", "", ""); err == nil {
			t.Fatalf("%s: expected error", backend)
		}
	}
}
