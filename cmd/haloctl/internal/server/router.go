package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	halomw "github.com/halolight/halolight/cmd/haloctl/internal/middleware"
	"github.com/halolight/halolight/pkg/sdk"
)

// Authenticator verifies credentials and issues tokens for the login endpoint.
type Authenticator interface {
	Authenticate(email, password string) (*sdk.User, error)
}

// TokenService issues and verifies access tokens.
type TokenService interface {
	halomw.TokenVerifier
	Issue(user *sdk.User) (string, time.Time, error)
}

// RouterOptions controls the construction of the halolight HTTP router.
// Guards and Tokens are required; the rest have defaults.
type RouterOptions struct {
	Guards      *sdk.Guards
	Tokens      TokenService
	Directory   Authenticator
	Authorizer  sdk.Authorizer
	Logger      *slog.Logger
	CORSOptions *cors.Options
	Middleware  []func(http.Handler) http.Handler
	// AccessLog toggles chi's request logger.
	AccessLog bool
}

// DefaultCORSOptions returns the development CORS policy for the admin front end.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:4200",
			"http://127.0.0.1:4200",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// Page is one guarded page of the admin route table.
type Page struct {
	Path  string
	Title string
	// Requirement applies to authenticated pages; the zero value means login only.
	Requirement sdk.Requirement
}

// GuestPages are only reachable while logged out.
var GuestPages = []Page{
	{Path: "/auth/login", Title: "Login"},
	{Path: "/auth/register", Title: "Register"},
	{Path: "/auth/forgot-password", Title: "Forgot password"},
	{Path: "/auth/reset-password", Title: "Reset password"},
}

// PublicPages are reachable by everyone.
var PublicPages = []Page{
	{Path: "/privacy", Title: "Privacy policy"},
	{Path: "/terms", Title: "Terms of service"},
}

// AppPages require a login and optionally a permission.
var AppPages = []Page{
	{Path: "/dashboard", Title: "Dashboard", Requirement: sdk.Requirement{Permission: sdk.DashboardView}},
	{Path: "/analytics", Title: "Analytics", Requirement: sdk.Requirement{Permission: sdk.DashboardView}},
	{Path: "/users", Title: "Users", Requirement: sdk.Requirement{Permission: sdk.UsersList}},
	{Path: "/roles", Title: "Roles", Requirement: sdk.Requirement{Permission: sdk.RolesList}},
	{Path: "/settings", Title: "Settings", Requirement: sdk.Requirement{AnyOf: []string{sdk.SettingsView, sdk.SettingsUpdate}}},
	{Path: "/profile", Title: "Profile"},
}

// pageTable returns the guest and app pages with the login page moved to
// routes.Login and the dashboard moved to routes.Home. A target that already
// names a page of the same table keeps that page instead.
func pageTable(routes sdk.Routes) (guest, app []Page) {
	return relocate(GuestPages, sdk.DefaultLoginPath, routes.Login),
		relocate(AppPages, sdk.DefaultHomePath, routes.Home)
}

func relocate(pages []Page, from, to string) []Page {
	out := slices.Clone(pages)
	if slices.ContainsFunc(out, func(p Page) bool { return p.Path == to }) {
		return out
	}
	for i := range out {
		if out[i].Path == from {
			out[i].Path = to
		}
	}
	return out
}

func pagePaths(pages []Page) []string {
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.Path
	}
	return paths
}

// ValidateRoutes rejects redirect targets that would make the guards
// redirect in a loop: login must be reachable while logged out, home while
// logged in, and forbidden by everyone.
func ValidateRoutes(routes sdk.Routes) error {
	guest, app := pageTable(routes)
	public := append(pagePaths(PublicPages), "/", "/auth", "/health")

	for _, path := range []string{routes.Login, routes.Home, routes.Forbidden} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("route %q must start with /", path)
		}
	}
	if slices.Contains(public, routes.Login) || slices.Contains(pagePaths(app), routes.Login) {
		return fmt.Errorf("login route %q must be a guest page", routes.Login)
	}
	if slices.Contains(public, routes.Home) || slices.Contains(pagePaths(guest), routes.Home) {
		return fmt.Errorf("home route %q must be an app page", routes.Home)
	}
	if slices.Contains(public, routes.Forbidden) ||
		slices.Contains(pagePaths(guest), routes.Forbidden) ||
		slices.Contains(pagePaths(app), routes.Forbidden) {
		return fmt.Errorf("forbidden route %q collides with a page", routes.Forbidden)
	}
	return nil
}

// NewRouter assembles a chi.Router with shared middleware, the CORS policy,
// the guarded admin route table and the auth API.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guards := opts.Guards
	routes := guards.Routes()
	if err := ValidateRoutes(routes); err != nil {
		logger.Warn("guard routes may redirect in a loop", "error", err)
	}
	guestPages, appPages := pageTable(routes)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Use(halomw.Authenticate(opts.Tokens, opts.Authorizer, logger))

	r.Get("/health", handleHealth)
	r.Get(routes.Forbidden, handleForbidden)
	for _, p := range PublicPages {
		r.Get(p.Path, handlePage(p))
	}

	r.Group(func(r chi.Router) {
		r.Use(halomw.GuestOnly(guards))
		r.Get("/auth", redirectTo(routes.Login))
		for _, p := range guestPages {
			r.Get(p.Path, handlePage(p))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(halomw.RequireAuthenticated(guards))
		r.Get("/", redirectTo(routes.Home))
		for _, p := range appPages {
			if p.Requirement.IsZero() {
				r.Get(p.Path, handlePage(p))
				continue
			}
			r.With(halomw.RequirePermission(guards, p.Requirement)).Get(p.Path, handlePage(p))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/permissions", handlePermissions)
		r.Get("/auth/whoami", handleWhoAmI)
		if opts.Directory != nil {
			r.Post("/auth/login", handleLogin(opts.Directory, opts.Tokens, logger))
		} else {
			logger.Warn("skipping POST /api/auth/login: no directory configured")
		}
	})

	// Unknown pages fall back to the root, which lands on home or login.
	r.NotFound(redirectTo("/"))

	return r
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over cleartext.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
