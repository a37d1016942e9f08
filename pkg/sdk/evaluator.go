package sdk

import "strings"

// Check reports whether the effective permission set grants required.
//
// A set grants a permission when it holds the universal wildcard "*", the
// permission verbatim, or a resource wildcard "resource:*" whose prefix
// (through the colon) starts the required permission. Holding "dashboard:*"
// grants "dashboard:view" but not "users:list".
//
// Check is total. An empty required permission is only granted by "*"
// (or by a set that literally contains the empty string).
func Check(effective []string, required string) bool {
	for _, p := range effective {
		if MatchPermission(p, required) {
			return true
		}
	}
	return false
}

// MatchPermission reports whether a single granted permission covers required.
func MatchPermission(granted, required string) bool {
	switch {
	case granted == AllWildcard:
		return true
	case granted == required:
		return true
	case strings.HasSuffix(granted, wildcardSuffix):
		// keep the colon: "users:*" → "users:"
		return strings.HasPrefix(required, granted[:len(granted)-1])
	}
	return false
}

// HasAny reports whether at least one of the permissions is granted.
// An empty list is never satisfied.
func HasAny(effective []string, permissions []string) bool {
	for _, p := range permissions {
		if Check(effective, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every permission is granted.
// An empty list is vacuously satisfied.
func HasAll(effective []string, permissions []string) bool {
	for _, p := range permissions {
		if !Check(effective, p) {
			return false
		}
	}
	return true
}

// EffectivePermissions merges the user's direct permissions with the
// permissions of the user's role. Duplicates are kept; evaluation only
// tests membership. A nil user has no permissions.
func EffectivePermissions(user *User) []string {
	if user == nil {
		return nil
	}
	rolePerms := user.Role.Permissions()
	effective := make([]string, 0, len(user.Permissions)+len(rolePerms))
	effective = append(effective, user.Permissions...)
	effective = append(effective, rolePerms...)
	return effective
}

// Authorizer decides whether a user holds a permission.
// The session store and request sessions delegate permission checks to it.
type Authorizer interface {
	Authorize(user *User, permission string) bool
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(user *User, permission string) bool

// Authorize calls f(user, permission).
func (f AuthorizerFunc) Authorize(user *User, permission string) bool {
	return f(user, permission)
}

// DefaultAuthorizer evaluates Check over the user's effective permissions.
var DefaultAuthorizer Authorizer = AuthorizerFunc(func(user *User, permission string) bool {
	return Check(EffectivePermissions(user), permission)
})
