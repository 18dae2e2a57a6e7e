package authkit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an
// extension to Service.
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension.
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns all database migrations required for AuthKit.
// Use db.Migrate(ctx, service.Migrations()) to run migrations.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "authkit-001",
			Description: "Create auth_users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS auth_users (
                    id TEXT PRIMARY KEY,
                    name TEXT NOT NULL,
                    email TEXT,
                    event_role TEXT,
                    organizer_function TEXT,
                    has_paid BOOLEAN NOT NULL DEFAULT false,
                    modules TEXT[],
                    permissions TEXT[],
                    legacy_role TEXT,
                    legacy_roles TEXT[],
                    legacy_profiles TEXT[],
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "authkit-002",
			Description: "Create permission_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    target_user_id TEXT NOT NULL,
                    previous_permissions TEXT[],
                    new_permissions TEXT[],
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                )`,
		},
	}
}
