package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/httpclient"
)

func TestProfileRequests(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/profile" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"firstName":"Ana","lastName":"Lima","userEmail":"ana@example.com"}]`))
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"firstName":"Ana","lastName":"Lima","phone":"123","userEmail":"ana+poems@example.com"}`))
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	svc := NewProfileService(httpclient.New(srv.URL, nil))
	ctx := context.Background()

	all, err := svc.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListAll = %v, %v", all, err)
	}
	p, err := svc.GetByEmail(ctx, "ana+poems@example.com")
	if err != nil || p.Phone != "123" {
		t.Fatalf("GetByEmail = %+v, %v", p, err)
	}
	saved, err := svc.Save(ctx, entity.Profile{FirstName: " Ana ", LastName: "Lima", UserEmail: "ana@example.com"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.FirstName != "Ana" {
		t.Fatalf("saved = %+v", saved)
	}
	if err := svc.DeleteByEmail(ctx, "ana@example.com"); err != nil {
		t.Fatalf("DeleteByEmail: %v", err)
	}

	want := []string{
		"GET /api/profile",
		"GET /api/profile/ana+poems@example.com",
		"POST /api/profile",
		"DELETE /api/profile/ana@example.com",
	}
	for i, w := range want {
		if paths[i] != w {
			t.Fatalf("request %d = %q, want %q", i, paths[i], w)
		}
	}
}

func TestSaveRequiresNames(t *testing.T) {
	svc := NewProfileService(httpclient.New("http://127.0.0.1:1", nil))
	_, err := svc.Save(context.Background(), entity.Profile{UserEmail: "ana@example.com"})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "First name is required; Last name is required" {
		t.Fatalf("message = %q", err.Error())
	}
}
