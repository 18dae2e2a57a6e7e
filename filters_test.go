package authkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAuditLogFilterDefaults tests the default limit
func TestAuditLogFilterDefaults(t *testing.T) {
	f := NewAuditLogFilter()

	assert.Equal(t, 100, f.Limit)
	assert.Zero(t, f.Offset)
	assert.Empty(t, f.ActorID)
	assert.True(t, f.Since.IsZero())
}

// TestAuditLogFilterFluent tests the fluent builder chain
func TestAuditLogFilterFluent(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(30 * 24 * time.Hour)

	f := NewAuditLogFilter().
		WithActor("admin1").
		WithTargetUser("u1").
		WithAction(AuditActionPermissionsUpdated).
		WithTimeRange(since, until).
		WithPagination(25, 50)

	assert.Equal(t, "admin1", f.ActorID)
	assert.Equal(t, "u1", f.TargetUserID)
	assert.Equal(t, "permissions_updated", f.Action)
	assert.Equal(t, since, f.Since)
	assert.Equal(t, until, f.Until)
	assert.Equal(t, 25, f.Limit)
	assert.Equal(t, 50, f.Offset)
}

// TestAuditLogFilterValueSemantics tests that chaining never mutates the base
func TestAuditLogFilterValueSemantics(t *testing.T) {
	base := NewAuditLogFilter()
	derived := base.WithActor("admin1").WithLimit(10)

	assert.Empty(t, base.ActorID)
	assert.Equal(t, 100, base.Limit)
	assert.Equal(t, "admin1", derived.ActorID)
	assert.Equal(t, 10, derived.Limit)
}

// TestAuditLogFilterSinceUntil tests the individual time setters
func TestAuditLogFilterSinceUntil(t *testing.T) {
	since := time.Now().Add(-time.Hour)

	f := NewAuditLogFilter().WithSince(since)
	assert.Equal(t, since, f.Since)
	assert.True(t, f.Until.IsZero())

	until := time.Now()
	f = f.WithUntil(until)
	assert.Equal(t, until, f.Until)
}
