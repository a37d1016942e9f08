package middleware

import (
	"net/http"

	"github.com/halolight/halolight/pkg/sdk"
)

// decide runs check against the request session and either serves next or
// answers with 302 Found to the guard's redirect target.
func decide(check func(sdk.SessionView) sdk.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := check(SessionFromContext(r.Context()))
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
		})
	}
}

// RequireAuthenticated lets authenticated requests through and redirects
// the rest to the login route.
func RequireAuthenticated(guards *sdk.Guards) func(http.Handler) http.Handler {
	return decide(guards.RequireAuthenticated)
}

// GuestOnly lets anonymous requests through and redirects authenticated
// ones to the home route.
func GuestOnly(guards *sdk.Guards) func(http.Handler) http.Handler {
	return decide(guards.GuestOnly)
}

// RequirePermission enforces req, redirecting anonymous requests to login
// and unauthorized ones to the forbidden route.
func RequirePermission(guards *sdk.Guards, req sdk.Requirement) func(http.Handler) http.Handler {
	return decide(func(s sdk.SessionView) sdk.Decision {
		return guards.RequirePermission(s, req)
	})
}
