package middleware

import (
	"context"

	"github.com/halolight/halolight/pkg/sdk"
)

// RequestSession is the session of a single HTTP request, resolved from its
// bearer token. It implements sdk.SessionView so the access guards can
// evaluate it exactly like a persisted session.
type RequestSession struct {
	token string
	user  *sdk.User
	authz sdk.Authorizer
}

// Ensure RequestSession implements sdk.SessionView at compile time.
var _ sdk.SessionView = (*RequestSession)(nil)

// NewRequestSession creates a session for user authenticated by token.
// A nil user or empty token yields an anonymous session.
func NewRequestSession(token string, user *sdk.User, authz sdk.Authorizer) *RequestSession {
	if authz == nil {
		authz = sdk.DefaultAuthorizer
	}
	if token == "" || user == nil {
		return &RequestSession{authz: authz}
	}
	return &RequestSession{token: token, user: user.Clone(), authz: authz}
}

// IsAuthenticated reports whether the request carried a valid token.
func (s *RequestSession) IsAuthenticated() bool {
	return s.token != ""
}

// Token returns the verified token, or "" for anonymous requests.
func (s *RequestSession) Token() string {
	return s.token
}

// User returns a copy of the request user, or nil.
func (s *RequestSession) User() *sdk.User {
	return s.user.Clone()
}

// HasPermission reports whether the request user holds permission.
func (s *RequestSession) HasPermission(permission string) bool {
	if s.user == nil {
		return false
	}
	return s.authz.Authorize(s.user, permission)
}

// HasAnyPermission reports whether the request user holds one of permissions.
func (s *RequestSession) HasAnyPermission(permissions []string) bool {
	for _, p := range permissions {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the request user holds every permission.
func (s *RequestSession) HasAllPermissions(permissions []string) bool {
	for _, p := range permissions {
		if !s.HasPermission(p) {
			return false
		}
	}
	return true
}

type sessionContextKey struct{}

// WithSession stores session on ctx.
func WithSession(ctx context.Context, session *RequestSession) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the request session. Requests that never went
// through Authenticate get an anonymous session.
func SessionFromContext(ctx context.Context) *RequestSession {
	if s, ok := ctx.Value(sessionContextKey{}).(*RequestSession); ok && s != nil {
		return s
	}
	return NewRequestSession("", nil, nil)
}
