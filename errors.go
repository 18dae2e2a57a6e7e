package authkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for AuthKit operations. Derivation itself never returns
// errors; these cover catalog validation, storage and propagation.
var (
	// ErrNoSession is returned when no session record is stored.
	ErrNoSession = errors.New("authkit: no session")

	// ErrInvalidModule is returned when a module is not defined in the catalog.
	ErrInvalidModule = errors.New("authkit: invalid module")

	// ErrInvalidEventRole is returned when an event role is not defined in the catalog.
	ErrInvalidEventRole = errors.New("authkit: invalid event role")

	// ErrInvalidPermission is returned when a permission format is invalid.
	ErrInvalidPermission = errors.New("authkit: invalid permission")

	// ErrUnauthorized is returned when an actor doesn't hold the required scopes.
	ErrUnauthorized = errors.New("authkit: unauthorized")

	// ErrNoUserID is returned when a user ID is not found in context.
	ErrNoUserID = errors.New("authkit: no user ID in context")

	// ErrNoActorID is returned when an actor ID is required for audit but missing.
	ErrNoActorID = errors.New("authkit: no actor ID in context")

	// ErrUserNotFound is returned when a user record does not exist in the backing store.
	ErrUserNotFound = errors.New("authkit: user not found")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("authkit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err        error      // Underlying sentinel error
	Message    string     // Additional context
	Module     Module     // Module involved (if applicable)
	Permission Permission // Permission involved (if applicable)
	UserID     string     // User involved (if applicable)
	ActorID    string     // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithModule adds module information to the error.
func (e *Error) WithModule(module Module) *Error {
	e.Module = module
	return e
}

// WithPermission adds permission information to the error.
func (e *Error) WithPermission(permission Permission) *Error {
	e.Permission = permission
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNoSession checks if an error indicates a missing session record.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession)
}

// IsInvalidPermission checks if an error is due to a malformed permission.
func IsInvalidPermission(err error) bool {
	return errors.Is(err, ErrInvalidPermission)
}

// IsUserNotFound checks if an error indicates a missing user record.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
