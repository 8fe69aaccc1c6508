package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"anoa.com/poemhub/internal/entity"
	commentService "anoa.com/poemhub/internal/modules/comment/service"
	likeService "anoa.com/poemhub/internal/modules/like/service"
	poemService "anoa.com/poemhub/internal/modules/poem/service"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/sanitize"
)

// PoemDetail shows one poem with its like count, the session user's like
// and the comments, and carries the like and comment actions.
type PoemDetail struct {
	Lifecycle

	poems    poemService.PoemService
	likes    likeService.LikeService
	toggler  *likeService.Toggler
	comments commentService.CommentService
	session  Session
	log      logger.Logger

	poemID      int64
	poem        *entity.Poem
	like        *likeService.LikeState
	thread      []entity.Comment
	err         string
	notice      string
	formErr     string
	onChange    func()
	unsubscribe func()
}

func NewPoemDetail(
	poems poemService.PoemService,
	likes likeService.LikeService,
	toggler *likeService.Toggler,
	comments commentService.CommentService,
	session Session,
	log logger.Logger,
) *PoemDetail {
	return &PoemDetail{
		poems:    poems,
		likes:    likes,
		toggler:  toggler,
		comments: comments,
		session:  session,
		log:      log,
	}
}

// OnChange is called whenever the like state changes, including the
// optimistic update and a rollback.
func (v *PoemDetail) OnChange(fn func()) { v.onChange = fn }

func (v *PoemDetail) Mount(ctx context.Context, p Params) error {
	v.stopFollowing()
	v.Lifecycle.Mount(ctx)
	v.poem, v.thread, v.err, v.notice, v.formErr = nil, nil, "", "", ""
	v.like = likeService.NewLikeState(entity.LikeState{})
	v.like.OnChange(func(entity.LikeState) {
		if v.onChange != nil {
			v.onChange()
		}
	})

	id, ok := p.Int64("id")
	if !ok || id <= 0 {
		v.err = "invalid poem id"
		return nil
	}
	v.poemID = id

	Run(&v.Lifecycle, func(ctx context.Context) (*entity.Poem, error) {
		return v.poems.GetByID(ctx, id)
	}, func(poem *entity.Poem, err error) {
		if err != nil {
			v.err = err.Error()
			return
		}
		v.poem = poem
	})
	if v.poem == nil {
		return nil
	}

	// The poem stays readable when the count cannot be loaded.
	Run(&v.Lifecycle, func(ctx context.Context) (int64, error) {
		return v.likes.Count(ctx, id)
	}, func(count int64, err error) {
		if err != nil {
			v.log.Warn("counting likes failed", map[string]interface{}{"poem_id": id, "error": err})
			v.notice = "Could not load likes: " + err.Error()
			count = 0
		}
		v.like.Set(entity.LikeState{Count: count})
	})

	v.refreshLiked(v.session.Current())
	v.unsubscribe = v.session.Subscribe(v.refreshLiked)

	v.loadComments()
	return nil
}

func (v *PoemDetail) Unmount() {
	v.stopFollowing()
	v.Lifecycle.Unmount()
}

func (v *PoemDetail) stopFollowing() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// refreshLiked sets the liked flag for id. It runs on mount and again
// whenever someone logs in or out while the poem is shown.
func (v *PoemDetail) refreshLiked(id entity.Identity) {
	if id.Anonymous() {
		if cur := v.like.Get(); cur.Liked {
			v.like.Set(entity.LikeState{Count: cur.Count})
		}
		return
	}
	Run(&v.Lifecycle, func(ctx context.Context) (bool, error) {
		return v.likes.HasLiked(ctx, v.poemID)
	}, func(liked bool, err error) {
		if err != nil {
			v.log.Warn("checking like failed", map[string]interface{}{"poem_id": v.poemID, "error": err})
			liked = false
		}
		cur := v.like.Get()
		v.like.Set(entity.LikeState{Liked: liked, Count: cur.Count})
	})
}

func (v *PoemDetail) loadComments() {
	Run(&v.Lifecycle, func(ctx context.Context) ([]entity.Comment, error) {
		return v.comments.ListByPoem(ctx, v.poemID)
	}, func(list []entity.Comment, err error) {
		if err != nil {
			v.log.Warn("loading comments failed", map[string]interface{}{"poem_id": v.poemID, "error": err})
			list = nil
		}
		v.thread = list
	})
}

func (v *PoemDetail) Poem() *entity.Poem { return v.poem }

func (v *PoemDetail) LikeState() entity.LikeState { return v.like.Get() }

func (v *PoemDetail) Comments() []entity.Comment { return v.thread }

// ToggleLike flips the like. Without a session it returns a Redirect to the
// login view and changes nothing. A refused toggle is rolled back and its
// error returned for display; the view stays usable.
func (v *PoemDetail) ToggleLike(ctx context.Context) error {
	if v.poem == nil {
		return apperror.ErrNotFound
	}
	if v.session.Current().Anonymous() {
		return toLogin
	}

	v.notice = ""
	if _, err := v.toggler.Toggle(ctx, v.poemID, v.like); err != nil {
		if apperror.IsAuthFailure(err) && v.session.Current().Anonymous() {
			return toLogin
		}
		v.notice = "Could not update like: " + err.Error()
		return err
	}
	return nil
}

func (v *PoemDetail) AddComment(ctx context.Context, content string) error {
	if v.session.Current().Anonymous() {
		return toLogin
	}
	if _, err := v.comments.Create(ctx, v.poemID, content); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	v.loadComments()
	return nil
}

func (v *PoemDetail) EditComment(ctx context.Context, commentID int64, content string) error {
	if err := v.checkAuthor(commentID); err != nil {
		return err
	}
	if _, err := v.comments.Update(ctx, commentID, content); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	v.loadComments()
	return nil
}

func (v *PoemDetail) DeleteComment(ctx context.Context, commentID int64) error {
	if err := v.checkAuthor(commentID); err != nil {
		return err
	}
	if err := v.comments.Delete(ctx, commentID); err != nil {
		v.formErr = err.Error()
		return err
	}
	v.formErr = ""
	v.loadComments()
	return nil
}

func (v *PoemDetail) checkAuthor(commentID int64) error {
	id := v.session.Current()
	if id.Anonymous() {
		return toLogin
	}
	for _, c := range v.thread {
		if c.ID == commentID {
			if err := commentService.CheckModify(id, c); err != nil {
				v.formErr = err.Error()
				return err
			}
			return nil
		}
	}
	v.formErr = fmt.Sprintf("comment %d is not on this poem", commentID)
	return apperror.ErrNotFound
}

func (v *PoemDetail) Render(w io.Writer) error {
	if v.poem == nil {
		heading(w, "Poem")
		inlineError(w, v.err)
		return nil
	}

	p := v.poem
	heading(w, sanitize.Line(p.Title))
	fmt.Fprintf(w, "by %s, %s\n", sanitize.Line(p.Author), sanitize.Line(p.PostDate))
	if p.ImageURL != "" {
		fmt.Fprintf(w, "image: %s\n", sanitize.Line(p.ImageURL))
	}
	fmt.Fprintf(w, "\n%s\n\n", sanitize.Text(p.Text))

	like := v.like.Get()
	mark := "[ ]"
	if like.Liked {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%s liked  %d like(s)\n", mark, like.Count)
	inlineError(w, v.notice)

	fmt.Fprintf(w, "\nComments (%d)\n", len(v.thread))
	me := v.session.Current()
	for _, c := range v.thread {
		own := ""
		if commentService.CanModify(me, c) {
			own = "  (yours: edit/delete)"
		}
		author := sanitize.Line(c.Author)
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(w, "  #%d %s %s%s\n", c.ID, author, sanitize.Line(c.CommentDate), own)
		for _, line := range strings.Split(sanitize.Text(c.Content), "\n") {
			fmt.Fprintf(w, "     %s\n", line)
		}
	}
	inlineError(w, v.formErr)
	return nil
}
