package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/validator"
)

type CommentService interface {
	ListByPoem(ctx context.Context, poemID int64) ([]entity.Comment, error)
	Create(ctx context.Context, poemID int64, content string) (*entity.Comment, error)
	// Update changes the content only.
	Update(ctx context.Context, id int64, content string) (*entity.Comment, error)
	Delete(ctx context.Context, id int64) error
}

type commentService struct {
	api httpclient.API
}

func NewCommentService(api httpclient.API) CommentService {
	return &commentService{api: api}
}

type createRequest struct {
	PoemID  int64  `json:"poemId"`
	Content string `json:"content"`
}

type updateRequest struct {
	Content string `json:"content"`
}

func (s *commentService) ListByPoem(ctx context.Context, poemID int64) ([]entity.Comment, error) {
	var comments []entity.Comment
	if err := s.api.Get(ctx, fmt.Sprintf("/api/comments/poem/%d", poemID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *commentService) Create(ctx context.Context, poemID int64, content string) (*entity.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validator.Var("Comment", content, "required,max=2000"); err != nil {
		return nil, err
	}

	var c entity.Comment
	if err := s.api.Post(ctx, "/api/comments", createRequest{PoemID: poemID, Content: content}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *commentService) Update(ctx context.Context, id int64, content string) (*entity.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validator.Var("Comment", content, "required,max=2000"); err != nil {
		return nil, err
	}

	var c entity.Comment
	if err := s.api.Put(ctx, fmt.Sprintf("/api/comments/%d", id), updateRequest{Content: content}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *commentService) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/api/comments/%d", id))
}

// CanModify reports whether the edit and delete actions should be offered
// for c. The server enforces authorship on its own; this only hides the
// buttons. Comments without an author id are matched by username.
func CanModify(id entity.Identity, c entity.Comment) bool {
	if id.Anonymous() {
		return false
	}
	if c.AuthorID != 0 {
		return id.UserID != 0 && id.UserID == c.AuthorID
	}
	return c.Author != "" && c.Author == id.Username
}

// CheckModify is CanModify as an error, for callers that act rather than
// render.
func CheckModify(id entity.Identity, c entity.Comment) error {
	if id.Anonymous() {
		return apperror.ErrLoginRequired
	}
	if !CanModify(id, c) {
		return apperror.ErrNotAuthor
	}
	return nil
}
