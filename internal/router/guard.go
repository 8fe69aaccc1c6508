// Package router decides, for each navigation, whether the requested view
// may render for the current session or where to go instead.
package router

import (
	"net/url"

	"anoa.com/poemhub/internal/entity"
)

type Kind int

const (
	Render Kind = iota
	Redirect
	Loading
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Loading:
		return "loading"
	}
	return "unknown"
}

// State is everything the guard looks at.
type State struct {
	HasToken bool
	Role     entity.Role
	Restored bool
}

func StateOf(id entity.Identity, restored bool) State {
	return State{HasToken: !id.Anonymous(), Role: id.Role, Restored: restored}
}

type Decision struct {
	Kind   Kind
	Target string // redirect target
	Route  *Route
	Params map[string]string
}

type Guard struct {
	routes      []Route
	loginPath   string
	defaultPath string
}

func NewGuard(routes []Route) *Guard {
	g := &Guard{
		routes:      make([]Route, len(routes)),
		loginPath:   PathLogin,
		defaultPath: PathHome,
	}
	copy(g.routes, routes)
	for i := range g.routes {
		g.routes[i].segments = splitPath(g.routes[i].Pattern)
	}
	return g
}

// Check decides what to do with a navigation to path. It only looks at its
// arguments, so equal inputs always give equal decisions.
func (g *Guard) Check(path string, st State) Decision {
	if !st.Restored {
		return Decision{Kind: Loading}
	}

	route, params := g.lookup(path)
	if route == nil {
		return Decision{Kind: Redirect, Target: g.defaultPath}
	}

	switch route.Access {
	case Authenticated:
		if !st.HasToken {
			return Decision{Kind: Redirect, Target: g.loginPath, Route: route}
		}
	case RoleRequired:
		if !st.HasToken || st.Role != route.Role {
			return Decision{Kind: Redirect, Target: g.loginPath, Route: route}
		}
	}

	if route.Dispatch != nil {
		return Decision{Kind: Redirect, Target: route.Dispatch(st.Role), Route: route}
	}
	return Decision{Kind: Render, Route: route, Params: params}
}

// Lookup finds the route for path without applying access rules.
func (g *Guard) Lookup(path string) (*Route, map[string]string) {
	return g.lookup(path)
}

func (g *Guard) lookup(path string) (*Route, map[string]string) {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	segments := splitPath(path)

	var best *Route
	var bestParams map[string]string
	bestStatic := -1
	for i := range g.routes {
		params, static, ok := g.routes[i].match(segments)
		if ok && static > bestStatic {
			best, bestParams, bestStatic = &g.routes[i], params, static
		}
	}
	return best, bestParams
}
