package authkit

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// USER RECORD OPERATIONS
// ============================================================================

// GetUser retrieves a user record by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := dbkit.WithErr1(s.db.NewSelect().Model(&user).Where("id = ?", userID).Limit(1).Scan(ctx), "GetUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrUserNotFound, "no record for user").WithUser(userID)
		}
		return nil, err
	}
	return &user, nil
}

// SaveUser upserts a full user record. The operation is idempotent: saving
// the same record twice leaves the same row.
func (s *Service) SaveUser(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()

	result, err := s.db.NewInsert().
		Model(user).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Set("event_role = EXCLUDED.event_role").
		Set("organizer_function = EXCLUDED.organizer_function").
		Set("has_paid = EXCLUDED.has_paid").
		Set("modules = EXCLUDED.modules").
		Set("permissions = EXCLUDED.permissions").
		Set("legacy_role = EXCLUDED.legacy_role").
		Set("legacy_roles = EXCLUDED.legacy_roles").
		Set("legacy_profiles = EXCLUDED.legacy_profiles").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	err = dbkit.WithErr(result, err, "SaveUser").Err()
	if err != nil {
		return NewError(ErrDatabaseError, "failed to save user").WithUser(user.ID)
	}
	return nil
}

// DeleteUser removes a user record.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.NewDelete().Table("auth_users").Where("id = ?", userID).Exec(ctx)
	err = dbkit.WithErr(result, err, "DeleteUser").Err()
	if err != nil {
		return NewError(ErrDatabaseError, "failed to delete user").WithUser(userID)
	}
	return nil
}

// UserExists checks if a user record exists.
func (s *Service) UserExists(ctx context.Context, userID string) bool {
	exists, err := dbkit.Exists[User](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", userID)
	})
	if err != nil {
		return false
	}
	return exists
}

// UpdateUser upserts a full user record and logs the change. This is the
// idempotent propagation target for Session.UpdatePermissions; it satisfies
// the Propagator interface.
func (s *Service) UpdateUser(ctx context.Context, user *User) error {
	previous, err := s.GetUser(ctx, user.ID)
	if err != nil && !IsUserNotFound(err) {
		return err
	}

	if err := s.SaveUser(ctx, user); err != nil {
		return err
	}

	audit := GetAuditContext(ctx)
	actorID := audit.ActorID
	if actorID == "" {
		actorID = user.ID
	}

	entry := &AuditEntry{
		ActorID:        actorID,
		Action:         AuditActionPermissionsUpdated,
		TargetUserID:   user.ID,
		NewPermissions: user.Permissions,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
		RequestID:      audit.RequestID,
	}
	if previous != nil {
		entry.PreviousPermissions = previous.Permissions
	}

	_ = s.logAudit(ctx, entry) // Log error but don't fail the update

	return nil
}

// UpdateUserPermissions replaces a user's permission set with exactly the
// given scopes: no merge with derived permissions, and the wildcard is
// dropped unless explicitly included. This is the administrative override
// entry point used by backoffice tooling.
//
// Example:
//
//	err := service.UpdateUserPermissions(ctx, userID, []authkit.Permission{"papers:read"})
func (s *Service) UpdateUserPermissions(ctx context.Context, userID string, perms []Permission) error {
	// The override is only legal with an auditable actor; check before
	// touching the table so a rejected call leaves no partial state.
	audit := GetAuditContext(ctx)
	actorID := audit.ActorID
	if actorID == "" {
		return NewError(ErrNoActorID, "actor ID required for permission override").WithUser(userID)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	previous := user.Permissions
	user.Permissions = NewPermissionSet(perms...).Values()

	result, err := s.db.NewUpdate().
		Table("auth_users").
		Set("permissions = ?", permissionStrings(user.Permissions)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)

	err = dbkit.WithErr(result, err, "UpdateUserPermissions").Err()
	if err != nil {
		return NewError(ErrDatabaseError, "failed to update permissions").WithUser(userID)
	}

	entry := &AuditEntry{
		ActorID:             actorID,
		Action:              AuditActionPermissionsUpdated,
		TargetUserID:        userID,
		PreviousPermissions: previous,
		NewPermissions:      user.Permissions,
		IPAddress:           audit.IPAddress,
		UserAgent:           audit.UserAgent,
		RequestID:           audit.RequestID,
	}

	_ = s.logAudit(ctx, entry) // Log error but don't fail the override

	return nil
}

// LoadSessionUser fetches a user record and enriches it when it predates
// the module system. Use it to build the login input from the backing
// store after credential verification.
func (s *Service) LoadSessionUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasDerivedSets() {
		s.deriver.Enrich(user)
	}
	return user, nil
}

// CountUsers returns the total number of stored user records.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return dbkit.Count[User](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}
