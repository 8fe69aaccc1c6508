package view

import (
	"context"
	"fmt"
	"io"
	"strings"

	"anoa.com/poemhub/internal/entity"
	poemService "anoa.com/poemhub/internal/modules/poem/service"
	searchService "anoa.com/poemhub/internal/modules/search/service"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/sanitize"
)

// PoemList is the home screen: every poem, newest first, ten to a page,
// with search by title or author. Mounted with ?q= it starts searching.
type PoemList struct {
	Lifecycle

	poems    poemService.PoemService
	searcher searchService.PoemSearcher
	log      logger.Logger

	all     []entity.Poem
	page    int
	query   string
	results []entity.Poem
	err     string
}

func NewPoemList(poems poemService.PoemService, searcher searchService.PoemSearcher, log logger.Logger) *PoemList {
	return &PoemList{poems: poems, searcher: searcher, log: log}
}

func (v *PoemList) Mount(ctx context.Context, p Params) error {
	v.Lifecycle.Mount(ctx)
	v.all, v.results, v.err = nil, nil, ""
	v.page = p.QueryInt("page", 1)
	v.query = strings.TrimSpace(p.Query.Get("q"))

	var redirect error
	Run(&v.Lifecycle, func(ctx context.Context) ([]entity.Poem, error) {
		poems, err := v.poems.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		poems = poemService.SortByPostDate(poems)
		if err := v.searcher.Index(ctx, poems); err != nil {
			v.log.Warn("indexing poems for search failed", map[string]interface{}{"error": err})
		}
		return poems, nil
	}, func(poems []entity.Poem, err error) {
		if err != nil {
			redirect, v.err = loadFailure(err)
			return
		}
		v.all = poems
	})
	if redirect != nil {
		return redirect
	}

	if v.query != "" {
		v.Search(ctx, v.query)
	}
	return nil
}

// Search replaces the results with poems matching q. An empty q clears the
// search and shows the paged list again.
func (v *PoemList) Search(ctx context.Context, q string) []entity.Poem {
	v.query = strings.TrimSpace(q)
	v.results = nil
	if v.query == "" {
		return nil
	}

	Run(&v.Lifecycle, func(ctx context.Context) ([]entity.Poem, error) {
		return v.searcher.Search(ctx, v.query)
	}, func(found []entity.Poem, err error) {
		if err != nil {
			v.log.Warn("search backend failed, filtering locally", map[string]interface{}{"error": err})
			found = filterLocal(v.all, v.query)
		}
		v.results = found
	})
	return v.results
}

func filterLocal(poems []entity.Poem, q string) []entity.Poem {
	q = strings.ToLower(q)
	var out []entity.Poem
	for _, p := range poems {
		if searchService.Matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func (v *PoemList) SetPage(n int) {
	v.page = n
}

func (v *PoemList) Page() ([]entity.Poem, int) {
	return poemService.Paginate(v.all, v.page)
}

func (v *PoemList) Render(w io.Writer) error {
	heading(w, "Poems")
	inlineError(w, v.err)
	if v.err != "" {
		return nil
	}

	if v.query != "" {
		fmt.Fprintf(w, "Search: %q\n", sanitize.Line(v.query))
		if len(v.results) == 0 {
			_, err := fmt.Fprintln(w, "No poems match.")
			return err
		}
		poemTable(w, v.results)
		return nil
	}

	page, total := v.Page()
	if total == 0 {
		_, err := fmt.Fprintln(w, "No poems yet.")
		return err
	}
	if len(page) == 0 {
		_, err := fmt.Fprintf(w, "Page %d does not exist (1-%d).\n", v.page, total)
		return err
	}
	poemTable(w, page)
	_, err := fmt.Fprintf(w, "Page %d of %d\n", v.page, total)
	return err
}

// LikedPoems lists the poems the session user liked.
type LikedPoems struct {
	Lifecycle

	poems poemService.PoemService

	liked []entity.Poem
	err   string
}

func NewLikedPoems(poems poemService.PoemService) *LikedPoems {
	return &LikedPoems{poems: poems}
}

func (v *LikedPoems) Mount(ctx context.Context, _ Params) error {
	v.Lifecycle.Mount(ctx)
	v.liked, v.err = nil, ""

	var redirect error
	Run(&v.Lifecycle, v.poems.ListLiked, func(poems []entity.Poem, err error) {
		if err != nil {
			redirect, v.err = loadFailure(err)
			return
		}
		v.liked = poems
	})
	return redirect
}

func (v *LikedPoems) Poems() []entity.Poem { return v.liked }

func (v *LikedPoems) Render(w io.Writer) error {
	heading(w, "Poems you liked")
	inlineError(w, v.err)
	if v.err != "" {
		return nil
	}
	if len(v.liked) == 0 {
		_, err := fmt.Fprintln(w, "You have not liked any poem yet.")
		return err
	}
	poemTable(w, v.liked)
	return nil
}
