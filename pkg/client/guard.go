package client

import "strings"

const (
	LoginPath    = "/login"
	FallbackPath = "/register"
)

// Decision is the outcome of a navigation. Redirect is empty when Allow is true.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard decides client-side navigation. It only shapes the experience; the
// server re-checks every protected request.
type Guard struct {
	public    map[string]bool
	protected map[string][]Role
	Fallback  string
	Login     string
}

// NewGuard returns the route table of the web client.
func NewGuard() *Guard {
	return &Guard{
		public: map[string]bool{
			"/login":           true,
			"/register":        true,
			"/forgot-password": true,
			"/reset-password":  true,
			"/verify-email":    true,
		},
		protected: map[string][]Role{
			"/admin":   {RoleAdmin},
			"/manager": {RoleAdmin, RoleManager},
			"/user":    {RoleAdmin, RoleManager, RoleUser},
		},
		Fallback: FallbackPath,
		Login:    LoginPath,
	}
}

// Protect adds or replaces a protected route.
func (g *Guard) Protect(path string, roles ...Role) {
	g.protected[path] = roles
}

// Resolve decides a navigation to path for a caller holding role ("" when
// signed out). Query strings are ignored.
func (g *Guard) Resolve(path string, role Role) Decision {
	path, _, _ = strings.Cut(path, "?")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if g.public[path] {
		return Decision{Allow: true}
	}
	roles, ok := g.protected[path]
	if !ok {
		return Decision{Redirect: g.Fallback}
	}
	for _, r := range roles {
		if role.Valid() && r == role {
			return Decision{Allow: true}
		}
	}
	return Decision{Redirect: g.Login}
}

// Check resolves path for the session in s.
func (g *Guard) Check(path string, s State) Decision {
	return g.Resolve(path, s.Role())
}

// Home is the dashboard a role lands on after login.
func Home(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleManager:
		return "/manager"
	case RoleUser:
		return "/user"
	}
	return LoginPath
}
