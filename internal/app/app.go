// Package app wires the client together and plays the part of the browser:
// it navigates paths, asks the route guard what to do and mounts and
// renders the views.
package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"

	"anoa.com/poemhub/internal/config"
	"anoa.com/poemhub/internal/router"
	"anoa.com/poemhub/internal/session"
	"anoa.com/poemhub/internal/view"
	"anoa.com/poemhub/pkg/httpclient"
	"anoa.com/poemhub/pkg/logger"
	"anoa.com/poemhub/pkg/storage"

	authService "anoa.com/poemhub/internal/modules/auth/service"
	commentService "anoa.com/poemhub/internal/modules/comment/service"
	likeService "anoa.com/poemhub/internal/modules/like/service"
	poemService "anoa.com/poemhub/internal/modules/poem/service"
	profileService "anoa.com/poemhub/internal/modules/profile/service"
	searchService "anoa.com/poemhub/internal/modules/search/service"
	userService "anoa.com/poemhub/internal/modules/user/service"

	"github.com/meilisearch/meilisearch-go"
)

const maxRedirects = 5

type App struct {
	cfg *config.Config
	log logger.Logger
	out io.Writer

	storage session.Storage
	Session *session.Store
	guard   *router.Guard

	Auth     authService.AuthService
	Poems    poemService.PoemService
	Likes    likeService.LikeService
	Toggler  *likeService.Toggler
	Comments commentService.CommentService
	Profiles profileService.ProfileService
	Users    userService.UserService
	Searcher searchService.PoemSearcher
	Images   storage.ImageStorage

	Navbar     *view.Navbar
	Login      *view.LoginForm
	Register   *view.RegisterForm
	Home       *view.PoemList
	Search     *view.PoemList
	Liked      *view.LikedPoems
	Detail     *view.PoemDetail
	UserDash   *view.UserDashboard
	AdminDash  *view.AdminDashboard
	views      map[string]view.View
	restore    sync.Once
	current    view.View
	currentURL string
}

type Option func(*App)

// WithOutput sets where views render. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithStorage replaces the session storage selected by the configuration.
func WithStorage(s session.Storage) Option {
	return func(a *App) { a.storage = s }
}

func New(cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, log: log, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}

	if a.storage == nil {
		st, err := session.OpenStorage(cfg.Session.Backend, cfg.Session.Path, cfg.Session.RedisURL, cfg.Session.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
		a.storage = st
	}
	a.Session = session.NewStore(a.storage, log)

	client := httpclient.New(cfg.API.BaseURL, a.Session,
		httpclient.WithTimeout(cfg.API.Timeout),
		httpclient.WithLogger(log.WithFields(map[string]interface{}{"component": "httpclient"})),
	)

	a.Auth = authService.NewAuthService(client, log)
	a.Poems = poemService.NewPoemService(client)
	a.Likes = likeService.NewLikeService(client)
	a.Toggler = likeService.NewToggler(a.Likes, a.Session, log)
	a.Comments = commentService.NewCommentService(client)
	a.Profiles = profileService.NewProfileService(client)
	a.Users = userService.NewUserService(client)

	if cfg.Search.MeiliSearchHost != "" {
		meili := meilisearch.New(meiliURL(cfg.Search.MeiliSearchHost), meilisearch.WithAPIKey(cfg.Search.MeiliMasterKey))
		a.Searcher = searchService.NewMeiliSearcher(meili, cfg.Search.PoemIndex, log)
	} else {
		a.Searcher = searchService.NewMemorySearcher()
	}

	if cfg.Cloudinary.Enabled() {
		images, err := storage.NewCloudinaryStorage(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.UploadFolder)
		if err != nil {
			return nil, err
		}
		a.Images = images
	}

	a.guard = router.NewGuard(router.DefaultRoutes())

	a.Navbar = view.NewNavbar(a.Session)
	a.Login = view.NewLoginForm(a.Auth, a.Session)
	a.Register = view.NewRegisterForm(a.Auth, a.Session)
	a.Home = view.NewPoemList(a.Poems, a.Searcher, log)
	a.Search = view.NewPoemList(a.Poems, a.Searcher, log)
	a.Liked = view.NewLikedPoems(a.Poems)
	a.Detail = view.NewPoemDetail(a.Poems, a.Likes, a.Toggler, a.Comments, a.Session, log)
	a.UserDash = view.NewUserDashboard(a.Profiles, a.Users, a.Session)
	a.AdminDash = view.NewAdminDashboard(a.Poems, a.Users, a.Profiles, a.Searcher, a.Images, log)

	a.views = map[string]view.View{
		"home":            a.Home,
		"login":           a.Login,
		"register":        a.Register,
		"search":          a.Search,
		"liked":           a.Liked,
		"poem":            a.Detail,
		"user-dashboard":  a.UserDash,
		"admin-dashboard": a.AdminDash,
	}

	a.Navbar.Mount(context.Background(), view.Params{})
	return a, nil
}

// Restore loads the persisted session. Navigate calls it on first use.
func (a *App) Restore(ctx context.Context) {
	a.restore.Do(func() {
		if err := a.Session.Restore(ctx); err != nil {
			a.log.Warn("continuing without a session", map[string]interface{}{"error": err})
		}
	})
}

// Navigate goes to path the way a browser would: the guard decides,
// redirects are followed, and the view for the final path is mounted and
// rendered. It returns the path that was rendered.
func (a *App) Navigate(ctx context.Context, path string) (string, error) {
	path, err := a.Visit(ctx, path)
	if err != nil {
		return path, err
	}
	return path, a.Render()
}

// Visit is Navigate without rendering.
func (a *App) Visit(ctx context.Context, path string) (string, error) {
	for hops := 0; ; {
		d := a.guard.Check(path, router.StateOf(a.Session.Current(), a.Session.Restored()))

		switch d.Kind {
		case router.Loading:
			a.Restore(ctx)
			select {
			case <-a.Session.Ready():
			case <-ctx.Done():
				return "", ctx.Err()
			}
			continue

		case router.Redirect:
			hops++
			if hops > maxRedirects {
				return "", fmt.Errorf("too many redirects from %s", path)
			}
			a.log.Debug("redirect", map[string]interface{}{"from": path, "to": d.Target})
			path = d.Target
			continue
		}

		v, ok := a.views[d.Route.Name]
		if !ok {
			return "", fmt.Errorf("no view for route %s", d.Route.Name)
		}
		if a.current != nil {
			a.current.Unmount()
		}
		a.current, a.currentURL = v, path

		err := v.Mount(ctx, view.Params{Path: d.Params, Query: queryOf(path)})
		if r, ok := view.AsRedirect(err); ok {
			hops++
			if hops > maxRedirects {
				return "", fmt.Errorf("too many redirects from %s", path)
			}
			path = r.To
			continue
		}
		return path, err
	}
}

// Follow navigates to the target of err when it is a redirect and returns
// err unchanged otherwise.
func (a *App) Follow(ctx context.Context, err error) error {
	r, ok := view.AsRedirect(err)
	if !ok {
		return err
	}
	_, navErr := a.Navigate(ctx, r.To)
	return navErr
}

// Render draws the navbar and the current view.
func (a *App) Render() error {
	if err := a.Navbar.Render(a.out); err != nil {
		return err
	}
	if a.current == nil {
		return nil
	}
	return a.current.Render(a.out)
}

// Location is the path of the mounted view.
func (a *App) Location() string {
	return a.currentURL
}

func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	if a.current != nil {
		a.current.Unmount()
		a.current, a.currentURL = nil, ""
	}
	return err
}

// Close unmounts the current view and releases the session storage.
func (a *App) Close() error {
	if a.current != nil {
		a.current.Unmount()
	}
	a.Navbar.Unmount()
	if c, ok := a.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func queryOf(path string) url.Values {
	u, err := url.Parse(path)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}

// meiliURL completes a bare MEILISEARCH_HOST with a scheme and, when it
// names no port, the default meilisearch port.
func meiliURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "7700")
	}
	return "http://" + host
}
