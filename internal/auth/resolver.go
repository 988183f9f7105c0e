package auth

import (
	"context"
	"slices"
	"sort"
)

// WildcardMarker is the single element returned in permission lists for
// admin-tier roles. Callers must treat it as "everything", never as a
// literal permission name.
const WildcardMarker = "*"

// PermissionSet is the tagged result of resolving a user's effective
// permissions: either the wildcard or an explicit name set.
type PermissionSet struct {
	All   bool
	Names map[string]struct{}
}

// Contains reports membership, honoring the wildcard.
func (ps PermissionSet) Contains(name string) bool {
	if ps.All {
		return true
	}
	_, ok := ps.Names[name]
	return ok
}

// List renders the set for API payloads: ["*"] for the wildcard,
// otherwise the sorted permission names.
func (ps PermissionSet) List() []string {
	if ps.All {
		return []string{WildcardMarker}
	}
	out := make([]string, 0, len(ps.Names))
	for name := range ps.Names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ConflictLogger receives a notice when the legacy override table and a
// role's stored permission set disagree about a permission name.
type ConflictLogger func(permission, role string, overrideAllows, roleSetAllows bool)

// Resolver is the single permission-resolution authority. The general
// rule is the role's stored permission set with an unconditional bypass
// for the admin tiers; the legacy static override table wins for the
// permission names it lists.
type Resolver struct {
	roles      RoleStore
	overrides  map[string][]string
	onConflict ConflictLogger
}

// NewResolver builds a resolver over the role store. onConflict may be
// nil.
func NewResolver(roles RoleStore, onConflict ConflictLogger) *Resolver {
	return &Resolver{
		roles:      roles,
		overrides:  legacyRoleOverrides,
		onConflict: onConflict,
	}
}

// Principal is a user with its resolved role and permissions.
type Principal struct {
	User        *User
	Role        *Role
	Permissions PermissionSet
}

// HasPermission evaluates a single permission for the principal,
// consulting the override table for the names it governs.
func (p Principal) HasPermission(name string) bool {
	return p.Permissions.Contains(name)
}

// IsAdmin reports whether the principal holds an admin-tier role.
func (p Principal) IsAdmin() bool {
	return p.Role != nil && (p.Role.Name == RoleAdmin || p.Role.Name == RoleSuperadmin)
}

// Resolve loads the user's role and computes the effective permission
// set, merging the override table at lookup time.
func (r *Resolver) Resolve(ctx context.Context, user *User) (Principal, error) {
	principal := Principal{User: user, Permissions: PermissionSet{Names: map[string]struct{}{}}}
	if user.RoleID == nil {
		return principal, nil
	}
	role, err := r.roles.Find(ctx, *user.RoleID)
	if err != nil {
		return Principal{}, err
	}
	principal.Role = role

	if role.Name == RoleAdmin || role.Name == RoleSuperadmin {
		principal.Permissions = PermissionSet{All: true}
		return principal, nil
	}

	perms, err := r.roles.PermissionsForRole(ctx, role.ID)
	if err != nil {
		return Principal{}, err
	}
	names := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		names[p.Name] = struct{}{}
	}

	// The override table is the second source of truth for the names it
	// lists. Apply it on top of the stored set, surfacing drift.
	for permName, allowedRoles := range r.overrides {
		overrideAllows := slices.Contains(allowedRoles, role.Name)
		_, roleSetAllows := names[permName]
		if overrideAllows != roleSetAllows && r.onConflict != nil {
			r.onConflict(permName, role.Name, overrideAllows, roleSetAllows)
		}
		if overrideAllows {
			names[permName] = struct{}{}
		} else {
			delete(names, permName)
		}
	}

	principal.Permissions = PermissionSet{Names: names}
	return principal, nil
}
