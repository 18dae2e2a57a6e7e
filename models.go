package authkit

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the authorization-relevant projection of a user record. The JSON
// field names match the records written by earlier versions of the
// application, so stored sessions remain readable across upgrades.
//
// Role, Roles and Profiles are the legacy pre-RBAC fields; Modules and
// Permissions carry the derived (or administratively overridden) sets.
type User struct {
	bun.BaseModel `bun:"table:auth_users,alias:au" json:"-"`

	ID                string            `bun:"id,pk" json:"id,omitempty"`
	Name              string            `bun:"name,notnull" json:"name"`
	Email             string            `bun:"email" json:"email,omitempty"`
	EventRole         EventRole         `bun:"event_role" json:"eventRole,omitempty"`
	OrganizerFunction OrganizerFunction `bun:"organizer_function" json:"organizerFunction,omitempty"`
	HasPaid           bool              `bun:"has_paid" json:"hasPaid,omitempty"`

	Modules     []Module     `bun:"modules,type:text[]" json:"modules,omitempty"`
	Permissions []Permission `bun:"permissions,type:text[]" json:"permissions,omitempty"`

	// Legacy fields retained for backward compatibility.
	Role     string   `bun:"legacy_role" json:"role,omitempty"`
	Roles    []string `bun:"legacy_roles,type:text[]" json:"roles,omitempty"`
	Profiles []string `bun:"legacy_profiles,type:text[]" json:"profiles,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Modules = append([]Module(nil), u.Modules...)
	clone.Permissions = append([]Permission(nil), u.Permissions...)
	clone.Roles = append([]string(nil), u.Roles...)
	clone.Profiles = append([]string(nil), u.Profiles...)
	return &clone
}

// HasDerivedSets reports whether the record already carries explicit module
// and permission sets. Records predating the RBAC system (or partially
// written ones) lack them and must be re-derived at hydration; records that
// carry them are adopted verbatim so hand-edited overrides are not widened
// or narrowed silently.
func (u *User) HasDerivedSets() bool {
	return u.Modules != nil && u.Permissions != nil
}

// Grant is the normalized derivation result: the modules reachable by the
// user and the permission scopes gating their actions.
type Grant struct {
	Modules     ModuleSet
	Permissions PermissionSet
}

// NewGrant creates an empty grant.
func NewGrant() Grant {
	return Grant{
		Modules:     NewModuleSet(),
		Permissions: NewPermissionSet(),
	}
}

// Clone returns an independent copy of the grant.
func (g Grant) Clone() Grant {
	return Grant{
		Modules:     g.Modules.Clone(),
		Permissions: g.Permissions.Clone(),
	}
}

// PermissionAuditLog records session lifecycle events and administrative
// permission overrides for compliance and debugging.
type PermissionAuditLog struct {
	bun.BaseModel `bun:"table:permission_audit_log,alias:pal"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"` // "login", "logout", "permissions_updated"

	// Target of the action
	TargetUserID string `bun:"target_user_id,notnull"`

	// Permission sets before and after the change
	PreviousPermissions []string `bun:"previous_permissions,type:text[]"`
	NewPermissions      []string `bun:"new_permissions,type:text[]"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	// Additional context (JSON)
	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionLogin              AuditAction = "login"
	AuditActionLogout             AuditAction = "logout"
	AuditActionPermissionsUpdated AuditAction = "permissions_updated"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID             string
	Action              AuditAction
	TargetUserID        string
	PreviousPermissions []Permission
	NewPermissions      []Permission
	IPAddress           string
	UserAgent           string
	RequestID           string
	Metadata            map[string]any
}

// ToModel converts an AuditEntry to a PermissionAuditLog model.
func (e *AuditEntry) ToModel() *PermissionAuditLog {
	return &PermissionAuditLog{
		ActorID:             e.ActorID,
		Action:              string(e.Action),
		TargetUserID:        e.TargetUserID,
		PreviousPermissions: permissionStrings(e.PreviousPermissions),
		NewPermissions:      permissionStrings(e.NewPermissions),
		IPAddress:           e.IPAddress,
		UserAgent:           e.UserAgent,
		RequestID:           e.RequestID,
		Metadata:            e.Metadata,
		Timestamp:           time.Now(),
	}
}

func permissionStrings(perms []Permission) []string {
	if perms == nil {
		return nil
	}
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
