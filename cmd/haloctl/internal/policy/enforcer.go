package policy

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/halolight/halolight/pkg/sdk"
)

//go:embed model.conf
var casbinModelContent string

// PrefixRole marks role principals in casbin policies.
const PrefixRole = "role:"

// RoleID creates a casbin principal for a role name.
// Example: RoleID("manager") → "role:manager"
func RoleID(role sdk.Role) string {
	return PrefixRole + string(role)
}

// PermMatchFunction returns the permMatch function registered with casbin.
// It applies the same wildcard rules as sdk.MatchPermission.
func PermMatchFunction() func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		if len(args) != 2 {
			return false, fmt.Errorf("permMatch requires 2 arguments: granted, required")
		}
		granted, ok := args[0].(string)
		if !ok {
			return false, fmt.Errorf("permMatch: first argument must be string (granted)")
		}
		required, ok := args[1].(string)
		if !ok {
			return false, fmt.Errorf("permMatch: second argument must be string (required)")
		}
		return sdk.MatchPermission(granted, required), nil
	}
}

// Enforcer answers permission checks with a casbin enforcer seeded from the
// built-in role table. It implements sdk.Authorizer.
type Enforcer struct {
	enforcer casbin.IEnforcer
	logger   *slog.Logger
}

// Ensure Enforcer implements sdk.Authorizer at compile time.
var _ sdk.Authorizer = (*Enforcer)(nil)

// NewEnforcer builds the enforcer from the embedded model and seeds one
// policy per role permission: p, role:<name>, <permission>.
func NewEnforcer(logger *slog.Logger) (*Enforcer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	enforcer.AddFunction("permMatch", PermMatchFunction())

	var rules [][]string
	for _, role := range sdk.Roles {
		for _, perm := range role.Permissions() {
			rules = append(rules, []string{RoleID(role), perm})
		}
	}
	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("seed role policies: %w", err)
	}

	return &Enforcer{enforcer: enforcer, logger: logger}, nil
}

// Authorize reports whether user holds permission. The user's role is
// enforced through casbin; the user's direct permissions are matched with
// the same permMatch rules. Enforcement errors deny.
func (e *Enforcer) Authorize(user *sdk.User, permission string) bool {
	if user == nil {
		return false
	}

	if user.Role != "" {
		allowed, err := e.enforcer.Enforce(RoleID(user.Role), permission)
		if err != nil {
			e.logger.Error("casbin enforce failed", "role", user.Role, "permission", permission, "error", err)
			return false
		}
		if allowed {
			e.logger.Debug("authorization granted by role", "user_id", user.ID, "role", user.Role, "permission", permission)
			return true
		}
	}

	if sdk.Check(user.Permissions, permission) {
		e.logger.Debug("authorization granted by direct permission", "user_id", user.ID, "permission", permission)
		return true
	}

	e.logger.Debug("authorization denied", "user_id", user.ID, "role", user.Role, "permission", permission)
	return false
}

// RolePermissions returns the permissions seeded for role, as stored in casbin.
func (e *Enforcer) RolePermissions(role sdk.Role) ([]string, error) {
	rules, err := e.enforcer.GetFilteredPolicy(0, RoleID(role))
	if err != nil {
		return nil, fmt.Errorf("list policies for %s: %w", role, err)
	}
	perms := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 1 {
			perms = append(perms, rule[1])
		}
	}
	return perms, nil
}
