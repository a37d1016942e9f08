package sdk

import (
	"errors"
	"slices"
	"testing"
)

func TestDescribe(t *testing.T) {
	tests := map[string]string{
		DashboardView:  "View dashboard",
		UsersDelete:    "Delete users",
		SettingsUpdate: "Update settings",
	}
	for perm, want := range tests {
		got, ok := Describe(perm)
		if !ok || got != want {
			t.Errorf("Describe(%q) = %q, %v; want %q", perm, got, ok, want)
		}
	}
	if _, ok := Describe("users:*"); ok {
		t.Error("wildcards have no description")
	}
}

func TestRolePermissions(t *testing.T) {
	if got := RoleAdmin.Permissions(); !slices.Contains(got, AllWildcard) {
		t.Errorf("admin permissions = %v, want to contain *", got)
	}
	if got := RoleManager.Permissions(); !slices.Contains(got, DashboardWildcard) {
		t.Errorf("manager permissions = %v, want to contain dashboard:*", got)
	}
	if got := RoleUser.Permissions(); !slices.Equal(got, []string{DashboardView}) {
		t.Errorf("user permissions = %v", got)
	}
	if got := Role("").Permissions(); got != nil {
		t.Errorf("empty role permissions = %v, want nil", got)
	}

	// callers must not be able to mutate the role table
	perms := RoleManager.Permissions()
	perms[0] = "*"
	if RoleManager.Permissions()[0] != DashboardWildcard {
		t.Fatal("role permissions were mutated through a returned slice")
	}
}

func TestRoleDisplayName(t *testing.T) {
	for _, r := range Roles {
		if r.DisplayName() == "" {
			t.Errorf("role %q has no display name", r)
		}
	}
	if Role("ghost").DisplayName() != "" {
		t.Error("unknown role should have no display name")
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("manager")
	if err != nil || r != RoleManager {
		t.Fatalf("ParseRole(manager) = %q, %v", r, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if Role("root").Valid() {
		t.Fatal("root should not be a valid role")
	}
}

func TestValidatePermission(t *testing.T) {
	valid := []string{"*", "users:list", "users:*", "dashboard:*", "settings:update"}
	for _, p := range valid {
		if !ValidatePermission(p) {
			t.Errorf("ValidatePermission(%q) = false, want true", p)
		}
	}
	invalid := []string{"", "users", "billing:*", ":*", "users:purge", "users*"}
	for _, p := range invalid {
		if ValidatePermission(p) {
			t.Errorf("ValidatePermission(%q) = true, want false", p)
		}
	}
}

func TestExpandWildcard(t *testing.T) {
	got := ExpandWildcard("users:*")
	want := []string{UsersCreate, UsersDelete, UsersList, UsersUpdate, UsersView}
	if !slices.Equal(got, want) {
		t.Fatalf("ExpandWildcard(users:*) = %v, want %v", got, want)
	}
	if got := ExpandWildcard("*"); len(got) != len(CatalogPermissions()) {
		t.Fatalf("ExpandWildcard(*) returned %d permissions", len(got))
	}
	if got := ExpandWildcard("roles:list"); !slices.Equal(got, []string{"roles:list"}) {
		t.Fatalf("concrete permission should expand to itself, got %v", got)
	}
}
