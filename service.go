package authkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fernandezvara/dbkit"
)

// Service persists user records and the permission-override audit trail in
// the backing database through dbkit. It implements Propagator, so a
// Session can fire-and-forget permission updates to it.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. The session never surfaces
// these errors to regular users; propagation failures are logged and the
// in-memory grant stands (the change is additive and intentional).
//
// Example error handling:
//
//	err := service.UpdateUserPermissions(ctx, userID, perms)
//	if err != nil {
//	    if dbkit.IsNotFound(err) {
//	        // Handle missing user record
//	    }
//	    var dbErr *dbkit.Error
//	    if errors.As(err, &dbErr) {
//	        fmt.Printf("Operation: %s, Table: %s\n", dbErr.Operation, dbErr.Table)
//	    }
//	}
type Service struct {
	db      dbkit.IDB
	deriver *Deriver
	logger  *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for diagnostics.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new AuthKit service.
//
// Example:
//
//	deriver := authkit.NewDeriver(authkit.DefaultCatalog())
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := authkit.NewService(deriver, db)
func NewService(deriver *Deriver, db dbkit.IDB, opts ...ServiceOption) *Service {
	if deriver == nil {
		deriver = NewDeriver(nil)
	}

	s := &Service{
		db:      db,
		deriver: deriver,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Deriver returns the permission deriver.
func (s *Service) Deriver() *Deriver {
	return s.deriver
}

// Transaction executes a function within a database transaction with
// automatic commit/rollback. If the function returns an error, the
// transaction is rolled back.
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx)
		})
	}
	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]PermissionAuditLog, error) {
	var logs []PermissionAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, err
	}

	return logs, nil
}
