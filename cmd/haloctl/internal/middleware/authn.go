package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/halolight/halolight/pkg/sdk"
)

// SessionCookieName is the cookie consulted when no Authorization header is sent.
const SessionCookieName = sdk.TokenKey

// TokenVerifier turns an access token into the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (*sdk.User, error)
}

// ExtractToken returns the bearer token from the Authorization header,
// falling back to the session cookie.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate resolves the request token into a RequestSession stored on
// the request context. Missing or invalid tokens produce an anonymous
// session; the guards decide what an anonymous request may see.
func Authenticate(verifier TokenVerifier, authz sdk.Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			session := NewRequestSession("", nil, authz)
			if token != "" {
				user, err := verifier.Verify(token)
				if err != nil {
					logger.Debug("ignoring invalid token", "path", r.URL.Path, "error", err)
				} else {
					session = NewRequestSession(token, user, authz)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
