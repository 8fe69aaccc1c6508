package router

import (
	"strings"

	"anoa.com/poemhub/internal/entity"
)

type Access int

const (
	Public Access = iota
	Authenticated
	RoleRequired
)

// Route is one entry of the route table. Pattern segments starting with ':'
// capture a path parameter. Dispatch, when set, picks the real route for an
// authenticated identity and the guard redirects there.
type Route struct {
	Name     string
	Pattern  string
	Access   Access
	Role     entity.Role
	Dispatch func(role entity.Role) string

	segments []string
}

const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathSearch         = "/search"
	PathLiked          = "/poems/liked"
	PathPoem           = "/poems/:id"
	PathDashboard      = "/dashboard"
	PathUserDashboard  = "/dashboard/user"
	PathAdminDashboard = "/dashboard/admin"
)

// DefaultRoutes is the route table of the application.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "home", Pattern: PathHome, Access: Public},
		{Name: "login", Pattern: PathLogin, Access: Public},
		{Name: "register", Pattern: PathRegister, Access: Public},
		{Name: "search", Pattern: PathSearch, Access: Public},
		{Name: "liked", Pattern: PathLiked, Access: Authenticated},
		{Name: "poem", Pattern: PathPoem, Access: Public},
		{Name: "dashboard", Pattern: PathDashboard, Access: Authenticated, Dispatch: DashboardFor},
		{Name: "user-dashboard", Pattern: PathUserDashboard, Access: RoleRequired, Role: entity.RoleUser},
		{Name: "admin-dashboard", Pattern: PathAdminDashboard, Access: RoleRequired, Role: entity.RoleAdmin},
	}
}

func DashboardFor(role entity.Role) string {
	if role == entity.RoleAdmin {
		return PathAdminDashboard
	}
	return PathUserDashboard
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// match reports whether path fits the pattern and how many static segments
// matched, which ranks competing routes.
func (r *Route) match(segments []string) (map[string]string, int, bool) {
	if len(segments) != len(r.segments) {
		return nil, 0, false
	}
	var params map[string]string
	static := 0
	for i, seg := range r.segments {
		if strings.HasPrefix(seg, ":") {
			if segments[i] == "" {
				return nil, 0, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, 0, false
		}
		static++
	}
	return params, static, true
}
