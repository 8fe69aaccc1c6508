// Package view holds the screens of the terminal front end. A view loads
// its data on Mount, renders plain text, and exposes the actions a user can
// take on it.
package view

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"sync"

	"anoa.com/poemhub/internal/entity"
	"anoa.com/poemhub/pkg/apperror"
)

type View interface {
	Mount(ctx context.Context, p Params) error
	Unmount()
	Render(w io.Writer) error
}

// Params are the path parameters and query of the navigation that mounted
// a view.
type Params struct {
	Path  map[string]string
	Query url.Values
}

func (p Params) Int64(name string) (int64, bool) {
	v, ok := p.Path[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}

func (p Params) QueryInt(name string, fallback int) int {
	n, err := strconv.Atoi(p.Query.Get(name))
	if err != nil {
		return fallback
	}
	return n
}

// Redirect is returned by Mount and by actions when the user has to go
// somewhere else, typically the login view.
type Redirect struct {
	To string
}

func (r *Redirect) Error() string {
	return "redirect to " + r.To
}

func AsRedirect(err error) (*Redirect, bool) {
	var r *Redirect
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

var toLogin = &Redirect{To: "/login"}

// loadFailure sorts a failed load into a redirect to login or an inline
// message.
func loadFailure(err error) (redirect error, message string) {
	if apperror.IsAuthFailure(err) {
		return toLogin, ""
	}
	return nil, err.Error()
}

// Session is what views need from the session store.
type Session interface {
	Current() entity.Identity
	Login(ctx context.Context, id entity.Identity) error
	Subscribe(fn func(entity.Identity)) func()
}

// Lifecycle tracks whether a view is mounted and for which parameters.
// Loads started through Run for an older mount are discarded.
type Lifecycle struct {
	mu      sync.Mutex
	gen     uint64
	mounted bool
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
}

// Mount starts a new generation. Loads of the previous one are cancelled.
func (l *Lifecycle) Mount(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.parent = parent
	l.ctx, l.cancel = context.WithCancel(parent)
	l.mounted = true
	l.gen++
}

// Refresh starts a new generation for a parameter change while mounted.
func (l *Lifecycle) Refresh() {
	l.mu.Lock()
	parent := l.parent
	mounted := l.mounted
	l.mu.Unlock()
	if !mounted {
		return
	}
	l.Mount(parent)
}

func (l *Lifecycle) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mounted = false
	l.gen++
}

func (l *Lifecycle) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}

func (l *Lifecycle) snapshot() (context.Context, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx, l.gen, l.mounted
}

func (l *Lifecycle) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted && l.gen == gen
}

// Run calls load with the mount's context and passes the outcome to apply,
// unless the view was unmounted or refreshed in the meantime. It reports
// whether apply ran.
func Run[T any](l *Lifecycle, load func(ctx context.Context) (T, error), apply func(T, error)) bool {
	ctx, gen, mounted := l.snapshot()
	if !mounted {
		return false
	}
	v, err := load(ctx)
	if !l.current(gen) {
		return false
	}
	apply(v, err)
	return true
}
