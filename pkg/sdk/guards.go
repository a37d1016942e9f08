package sdk

// SessionView is the read side of a session consumed by the access guards.
// *SessionStore implements it, as do per-request sessions built by servers.
type SessionView interface {
	IsAuthenticated() bool
	HasPermission(permission string) bool
	HasAnyPermission(permissions []string) bool
	HasAllPermissions(permissions []string) bool
}

// Ensure SessionStore implements SessionView at compile time.
var _ SessionView = (*SessionStore)(nil)

// Default redirect targets used by the guards.
const (
	DefaultLoginPath     = "/auth/login"
	DefaultHomePath      = "/dashboard"
	DefaultForbiddenPath = "/403"
)

// Routes names the redirect targets a router applies for guard failures.
// The zero value uses the Default*Path constants.
type Routes struct {
	Login     string
	Home      string
	Forbidden string
}

// DefaultRoutes returns the standard redirect targets.
func DefaultRoutes() Routes {
	return Routes{
		Login:     DefaultLoginPath,
		Home:      DefaultHomePath,
		Forbidden: DefaultForbiddenPath,
	}
}

func (r Routes) withDefaults() Routes {
	if r.Login == "" {
		r.Login = DefaultLoginPath
	}
	if r.Home == "" {
		r.Home = DefaultHomePath
	}
	if r.Forbidden == "" {
		r.Forbidden = DefaultForbiddenPath
	}
	return r
}

// Decision is the outcome of a guard: either allow, or redirect to a path.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Allow returns a decision that lets the navigation proceed.
func Allow() Decision {
	return Decision{Allowed: true}
}

// RedirectTo returns a decision that sends the navigation to path.
func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Requirement is the permission requirement attached to a route.
// Each set field must be satisfied; the zero Requirement allows everyone
// who is authenticated. A nil list is unset, while an empty non-nil list is
// checked like any other: an empty AnyOf never passes and an empty AllOf
// always does.
type Requirement struct {
	// Permission must be held.
	Permission string
	// AnyOf requires at least one of the listed permissions.
	AnyOf []string
	// AllOf requires every listed permission.
	AllOf []string
}

// IsZero reports whether the requirement has nothing to check.
func (r Requirement) IsZero() bool {
	return r.Permission == "" && r.AnyOf == nil && r.AllOf == nil
}

// Guards evaluates routing decisions against a fixed set of redirect targets.
type Guards struct {
	routes Routes
}

// NewGuards creates guards that redirect to routes. Empty fields use defaults.
func NewGuards(routes Routes) *Guards {
	return &Guards{routes: routes.withDefaults()}
}

// Routes returns the redirect targets in use.
func (g *Guards) Routes() Routes {
	return g.routes
}

// RequireAuthenticated allows authenticated sessions and sends everyone else to login.
func (g *Guards) RequireAuthenticated(session SessionView) Decision {
	if session.IsAuthenticated() {
		return Allow()
	}
	return RedirectTo(g.routes.Login)
}

// GuestOnly allows anonymous sessions and sends authenticated ones home.
func (g *Guards) GuestOnly(session SessionView) Decision {
	if !session.IsAuthenticated() {
		return Allow()
	}
	return RedirectTo(g.routes.Home)
}

// RequirePermission checks authentication first, so an anonymous request
// for a permission-gated route always goes to login rather than to the
// forbidden page. Then the single, any-of and all-of requirements are
// checked in that order.
func (g *Guards) RequirePermission(session SessionView, req Requirement) Decision {
	if !session.IsAuthenticated() {
		return RedirectTo(g.routes.Login)
	}
	if req.Permission != "" && !session.HasPermission(req.Permission) {
		return RedirectTo(g.routes.Forbidden)
	}
	if req.AnyOf != nil && !session.HasAnyPermission(req.AnyOf) {
		return RedirectTo(g.routes.Forbidden)
	}
	if req.AllOf != nil && !session.HasAllPermissions(req.AllOf) {
		return RedirectTo(g.routes.Forbidden)
	}
	return Allow()
}
