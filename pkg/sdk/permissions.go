package sdk

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Permission constants for authorization checks.
// Every permission uses the resource:action format; see Check for wildcard rules.

// Dashboard permissions
const (
	// DashboardView allows viewing the dashboard
	DashboardView = "dashboard:view"

	// DashboardEdit allows rearranging and editing dashboard widgets
	DashboardEdit = "dashboard:edit"
)

// User management permissions
const (
	UsersList   = "users:list"
	UsersView   = "users:view"
	UsersCreate = "users:create"
	UsersUpdate = "users:update"
	UsersDelete = "users:delete"
)

// Role management permissions
const (
	RolesList   = "roles:list"
	RolesCreate = "roles:create"
	RolesUpdate = "roles:update"
	RolesDelete = "roles:delete"
)

// Permission management permissions
const (
	PermissionsList   = "permissions:list"
	PermissionsAssign = "permissions:assign"
)

// Settings permissions
const (
	SettingsView   = "settings:view"
	SettingsUpdate = "settings:update"
)

// Wildcards used in role definitions for broad access
const (
	// DashboardWildcard grants all dashboard actions
	DashboardWildcard = "dashboard:*"

	// AllWildcard grants every permission, including ones not in the catalog
	AllWildcard = "*"
)

// wildcardSuffix marks a resource-level wildcard such as "users:*".
const wildcardSuffix = ":*"

// permissionCatalog maps each known permission to its description.
var permissionCatalog = map[string]string{
	DashboardView:     "View dashboard",
	DashboardEdit:     "Edit dashboard",
	UsersList:         "List users",
	UsersView:         "View user details",
	UsersCreate:       "Create users",
	UsersUpdate:       "Update users",
	UsersDelete:       "Delete users",
	RolesList:         "List roles",
	RolesCreate:       "Create roles",
	RolesUpdate:       "Update roles",
	RolesDelete:       "Delete roles",
	PermissionsList:   "List permissions",
	PermissionsAssign: "Assign permissions",
	SettingsView:      "View settings",
	SettingsUpdate:    "Update settings",
}

// Describe returns the human-readable description of a catalog permission.
func Describe(permission string) (string, bool) {
	desc, ok := permissionCatalog[permission]
	return desc, ok
}

// CatalogPermissions returns every catalog permission in sorted order.
func CatalogPermissions() []string {
	keys := make([]string, 0, len(permissionCatalog))
	for k := range permissionCatalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidatePermission checks that a permission string is a catalog key,
// a wildcard over a catalog resource, or the universal wildcard.
// This prevents typos when assigning permissions to users.
func ValidatePermission(permission string) bool {
	if permission == AllWildcard {
		return true
	}
	if _, ok := permissionCatalog[permission]; ok {
		return true
	}
	if resource, ok := strings.CutSuffix(permission, wildcardSuffix); ok && resource != "" {
		prefix := resource + ":"
		for key := range permissionCatalog {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}
	return false
}

// ExpandWildcard expands wildcard permissions to their concrete catalog permissions.
// Example: "users:*" → ["users:create", "users:delete", "users:list", "users:update", "users:view"]
// Non-wildcard permissions are returned as-is.
func ExpandWildcard(permission string) []string {
	if permission == AllWildcard {
		return CatalogPermissions()
	}
	if !strings.HasSuffix(permission, wildcardSuffix) {
		return []string{permission}
	}
	var expanded []string
	for _, key := range CatalogPermissions() {
		if Check([]string{permission}, key) {
			expanded = append(expanded, key)
		}
	}
	return expanded
}

// ErrUnknownRole is returned by ParseRole for names outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is a named bundle of permissions attachable to a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Roles lists every known role from most to least privileged.
var Roles = []Role{RoleAdmin, RoleManager, RoleUser}

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// DisplayName returns the label shown for the role in admin screens.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleManager:
		return "Manager"
	case RoleUser:
		return "User"
	}
	return ""
}

// Permissions returns the fixed permission set granted by the role.
// Unknown roles grant nothing. The returned slice is a fresh copy.
func (r Role) Permissions() []string {
	switch r {
	case RoleAdmin:
		return []string{AllWildcard}
	case RoleManager:
		return []string{DashboardWildcard, UsersList, UsersView}
	case RoleUser:
		return []string{DashboardView}
	}
	return nil
}
