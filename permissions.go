package authkit

import (
	"sort"
	"strings"
)

// IsWildcard reports whether this permission is the reserved "admin:all"
// scope.
func (p Permission) IsWildcard() bool {
	return p == PermissionWildcard
}

// Resource returns the resource part of a "resource:action" scope, or the
// whole string when no separator is present.
func (p Permission) Resource() string {
	s := string(p)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// Action returns the action part of a "resource:action" scope, or an empty
// string when no separator is present.
func (p Permission) Action() string {
	s := string(p)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// Validate checks if a permission scope is well-formed: exactly two
// non-empty colon-separated parts of lowercase identifier characters.
// Validation guards catalog definitions; derivation never validates.
func (p Permission) Validate() error {
	if p == "" {
		return NewError(ErrInvalidPermission, "permission cannot be empty")
	}

	parts := strings.Split(string(p), ":")
	if len(parts) != 2 {
		return NewError(ErrInvalidPermission, "permission must be resource:action").
			WithPermission(p)
	}

	for _, part := range parts {
		if part == "" {
			return NewError(ErrInvalidPermission, "permission parts cannot be empty").
				WithPermission(p)
		}
		for _, c := range part {
			if !isValidScopeChar(c) {
				return NewError(ErrInvalidPermission, "permission contains invalid character").
					WithPermission(p)
			}
		}
	}

	return nil
}

func isValidScopeChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// ModuleSet is a set of modules. The zero value is not usable; create one
// with NewModuleSet.
type ModuleSet map[Module]struct{}

// NewModuleSet creates a set containing the given modules.
func NewModuleSet(modules ...Module) ModuleSet {
	s := make(ModuleSet, len(modules))
	s.Add(modules...)
	return s
}

// Add inserts modules into the set. Duplicates collapse.
func (s ModuleSet) Add(modules ...Module) {
	for _, m := range modules {
		s[m] = struct{}{}
	}
}

// Has reports whether the set contains a module.
func (s ModuleSet) Has(m Module) bool {
	_, ok := s[m]
	return ok
}

// Values returns the modules in deterministic (sorted) order.
func (s ModuleSet) Values() []Module {
	values := make([]Module, 0, len(s))
	for m := range s {
		values = append(values, m)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values
}

// Clone returns an independent copy of the set.
func (s ModuleSet) Clone() ModuleSet {
	clone := make(ModuleSet, len(s))
	for m := range s {
		clone[m] = struct{}{}
	}
	return clone
}

// PermissionSet is a set of permission scopes. The zero value is not usable;
// create one with NewPermissionSet.
type PermissionSet map[Permission]struct{}

// NewPermissionSet creates a set containing the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	s.Add(perms...)
	return s
}

// Add inserts permissions into the set. Duplicates collapse.
func (s PermissionSet) Add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

// Has reports whether the set contains a permission. This is an exact
// membership test; wildcard short-circuiting belongs to the query layer.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasWildcard reports whether the set contains the "admin:all" scope.
func (s PermissionSet) HasWildcard() bool {
	_, ok := s[PermissionWildcard]
	return ok
}

// Values returns the permissions in deterministic (sorted) order.
func (s PermissionSet) Values() []Permission {
	values := make([]Permission, 0, len(s))
	for p := range s {
		values = append(values, p)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values
}

// Clone returns an independent copy of the set.
func (s PermissionSet) Clone() PermissionSet {
	clone := make(PermissionSet, len(s))
	for p := range s {
		clone[p] = struct{}{}
	}
	return clone
}
