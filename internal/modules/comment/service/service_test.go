package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/httpclient"
)

func TestCanModify(t *testing.T) {
	alice := entity.Identity{Token: "t", Username: "alice", UserID: 4}

	tests := []struct {
		name    string
		id      entity.Identity
		comment entity.Comment
		want    bool
	}{
		{"author by id", alice, entity.Comment{AuthorID: 4, Author: "someone"}, true},
		{"other author by id", alice, entity.Comment{AuthorID: 5, Author: "alice"}, false},
		{"no uid claim", entity.Identity{Token: "t", Username: "alice"}, entity.Comment{AuthorID: 4}, false},
		{"author by name", alice, entity.Comment{Author: "alice"}, true},
		{"other author by name", alice, entity.Comment{Author: "bob"}, false},
		{"anonymous", entity.Identity{}, entity.Comment{Author: ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.id, tt.comment); got != tt.want {
				t.Fatalf("CanModify = %v, want %v", got, tt.want)
			}
		})
	}

	if err := CheckModify(entity.Identity{}, entity.Comment{}); !errors.Is(err, apperror.ErrLoginRequired) {
		t.Fatalf("anonymous err = %v", err)
	}
	if err := CheckModify(alice, entity.Comment{AuthorID: 9}); !errors.Is(err, apperror.ErrNotAuthor) {
		t.Fatalf("non-author err = %v", err)
	}
}

func TestCommentRequests(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]interface{}
	}
	var calls []call

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.Method, r.URL.Path, body})

		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"id":1,"poemId":3,"content":"lovely","author":"bob","authorId":2,"commentDate":"01/01/2025"}]`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Write([]byte(`{"id":8,"poemId":3,"content":"nice"}`))
		}
	}))
	defer srv.Close()

	svc := NewCommentService(httpclient.New(srv.URL, nil))
	ctx := context.Background()

	list, err := svc.ListByPoem(ctx, 3)
	if err != nil || len(list) != 1 || list[0].AuthorID != 2 || list[0].CommentDate != "01/01/2025" {
		t.Fatalf("ListByPoem = %+v, %v", list, err)
	}
	if _, err := svc.Create(ctx, 3, "  nice  "); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Update(ctx, 8, "nicer"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, 8); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if calls[1].path != "/api/comments" || calls[1].body["content"] != "nice" || calls[1].body["poemId"] != float64(3) {
		t.Fatalf("create call = %+v", calls[1])
	}
	if calls[2].method != http.MethodPut || calls[2].path != "/api/comments/8" || len(calls[2].body) != 1 {
		t.Fatalf("update call = %+v", calls[2])
	}
	if calls[3].method != http.MethodDelete || calls[3].path != "/api/comments/8" {
		t.Fatalf("delete call = %+v", calls[3])
	}
}

func TestCreateRejectsBlank(t *testing.T) {
	svc := NewCommentService(httpclient.New("http://127.0.0.1:1", nil))
	_, err := svc.Create(context.Background(), 1, "   ")
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "Comment is required" {
		t.Fatalf("message = %q", err.Error())
	}
}
