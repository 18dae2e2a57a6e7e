package authkit

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"
)

// ============================================================================
// RETRY LAYERING
// ============================================================================

// The session itself never retries: the in-memory grant takes effect first
// and persistence is best-effort. Callers wanting retry semantics for the
// backend propagation layer them on top with these helpers.

// UpdateUserPermissionsWithRetry replaces a user's permission set with
// automatic retry for transient database errors.
func (s *Service) UpdateUserPermissionsWithRetry(ctx context.Context, userID string, perms []Permission) error {
	return s.updatePermissionsWithRetry(ctx, userID, perms, 3)
}

// updatePermissionsWithRetry is the internal implementation with a
// configurable attempt count.
func (s *Service) updatePermissionsWithRetry(ctx context.Context, userID string, perms []Permission, maxAttempts int) error {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.UpdateUserPermissions(ctx, userID, perms)
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on non-transient errors
		if !isTransientError(err) {
			return err
		}

		// If this is the last attempt, don't wait
		if attempt == maxAttempts-1 {
			break
		}

		// Exponential backoff with jitter
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return lastErr
}

// UpdateUserWithRetry upserts a full user record with automatic retry for
// transient database errors.
func (s *Service) UpdateUserWithRetry(ctx context.Context, user *User) error {
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		err := s.UpdateUser(ctx, user)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isTransientError(err) {
			return err
		}

		if attempt == 2 {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(backoff) * 0.1 * (0.5 + rand.Float64()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return lastErr
}

// isTransientError checks if an error is transient and can be retried.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// Missing records and audit preconditions never heal by retrying.
	if IsUserNotFound(err) || errors.Is(err, ErrNoActorID) {
		return false
	}

	// Context errors end the retry loop in the caller.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	// PostgreSQL transient errors
	msg := strings.ToLower(err.Error())
	transientErrors := []string{
		"connection",
		"timeout",
		"deadlock",
		"lock wait timeout",
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"try again",
		"resource temporarily unavailable",
	}

	for _, transient := range transientErrors {
		if strings.Contains(msg, transient) {
			return true
		}
	}

	return false
}
