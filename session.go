package authkit

import (
	"context"
	"log/slog"
	"sync"
)

// Session holds exactly one current actor (or none) and exposes
// authorization queries against it. Construction and teardown are explicit:
// create with NewSession, dispose with Close.
//
// The in-memory state is always updated first and synchronously; persistence
// through the SessionStore and propagation through the Propagator are
// best-effort, with failures logged and never rolled back.
type Session struct {
	mu      sync.RWMutex
	current *User
	grant   Grant

	deriver *Deriver
	store   SessionStore
	prop    Propagator
	logger  *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger for persistence and propagation diagnostics.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPropagator sets the backend propagation target for permission updates.
func WithPropagator(prop Propagator) SessionOption {
	return func(s *Session) {
		s.prop = prop
	}
}

// NewSession creates a Session. A nil store falls back to an in-process
// MemoryStore.
//
// Example:
//
//	deriver := authkit.NewDeriver(authkit.DefaultCatalog())
//	session := authkit.NewSession(deriver, authkit.NewRedisStore(client),
//	    authkit.WithPropagator(service))
func NewSession(deriver *Deriver, store SessionStore, opts ...SessionOption) *Session {
	if deriver == nil {
		deriver = NewDeriver(nil)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	s := &Session{
		deriver: deriver,
		store:   store,
		grant:   NewGrant(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Deriver returns the deriver backing this session.
func (s *Session) Deriver() *Deriver {
	return s.deriver
}

// Login derives modules and permissions for the user, adopts the enriched
// record as the current actor and saves it to the store. Any prior session
// is overwritten without requiring an explicit Logout. A nil user is a
// no-op, like everywhere else in the derivation path.
func (s *Session) Login(ctx context.Context, user *User) {
	if user == nil {
		return
	}

	record := user.Clone()
	grant := s.deriver.Derive(record)
	record.Modules = grant.Modules.Values()
	record.Permissions = grant.Permissions.Values()

	s.mu.Lock()
	s.current = record
	s.grant = grant
	s.mu.Unlock()

	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error("authkit: failed to save session",
			"user_id", record.ID, "error", err)
	}
}

// Logout clears the current actor and deletes the stored record. It is
// idempotent: calling it with no active session is a no-op.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.grant = NewGrant()
	s.mu.Unlock()

	if !had {
		return
	}

	if err := s.store.Delete(ctx); err != nil {
		s.logger.Error("authkit: failed to delete session", "error", err)
	}
}

// Hydrate adopts a stored record as the current actor. Records that lack
// explicit module or permission sets (pre-RBAC or partially written) are
// re-derived first; records that carry both are adopted verbatim, so
// hand-edited permission overrides are neither widened nor narrowed.
func (s *Session) Hydrate(stored *User) {
	if stored == nil {
		return
	}

	record := stored.Clone()
	if !record.HasDerivedSets() {
		s.deriver.Enrich(record)
	}

	s.mu.Lock()
	s.current = record
	s.grant = Grant{
		Modules:     NewModuleSet(record.Modules...),
		Permissions: NewPermissionSet(record.Permissions...),
	}
	s.mu.Unlock()
}

// HydrateFromStore loads the stored record and hydrates from it. A missing
// record leaves the session unauthenticated without error.
func (s *Session) HydrateFromStore(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		if IsNoSession(err) {
			return nil
		}
		return err
	}
	s.Hydrate(stored)
	return nil
}

// UpdatePermissions replaces the current actor's permission set with exactly
// the given scopes. This is the administrative override path: there is no
// merge with derived permissions, and "admin:all" is dropped unless it is
// explicitly included.
//
// The in-memory grant takes effect immediately. Store persistence and
// backend propagation are attempted afterward; failures are logged and do
// not roll back the local change. Callers wanting retry semantics layer
// them on top (see Service.UpdateUserPermissionsWithRetry).
func (s *Session) UpdatePermissions(ctx context.Context, perms []Permission) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current.Permissions = append([]Permission(nil), perms...)
	s.grant.Permissions = NewPermissionSet(perms...)
	record := s.current.Clone()
	s.mu.Unlock()

	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error("authkit: failed to persist permission update",
			"user_id", record.ID, "error", err)
	}

	if s.prop != nil {
		if err := s.prop.UpdateUser(ctx, record); err != nil {
			s.logger.Error("authkit: failed to propagate permission update",
				"user_id", record.ID, "error", err)
		}
	}
}

// Current returns a copy of the current actor, or nil when no one is
// logged in.
func (s *Session) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Authenticated reports whether the session has a current actor.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// HasPermission checks if the current actor holds a permission scope.
// Returns false with no actor. The "admin:all" wildcard satisfies every
// scope.
func (s *Session) HasPermission(scope Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	if s.grant.Permissions.HasWildcard() {
		return true
	}
	return s.grant.Permissions.Has(scope)
}

// HasAllPermissions checks if the current actor holds every given scope.
// Returns false with no actor. An empty scope list is vacuously true for an
// authenticated actor. The wildcard short-circuits before any scope is
// evaluated.
func (s *Session) HasAllPermissions(scopes []Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	if s.grant.Permissions.HasWildcard() {
		return true
	}
	for _, scope := range scopes {
		if !s.grant.Permissions.Has(scope) {
			return false
		}
	}
	return true
}

// HasAnyPermission checks if the current actor holds at least one of the
// given scopes. Returns false with no actor. For a non-wildcard actor an
// empty scope list is false ("any of zero scopes" never holds); a wildcard
// actor passes even then.
func (s *Session) HasAnyPermission(scopes []Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	if s.grant.Permissions.HasWildcard() {
		return true
	}
	for _, scope := range scopes {
		if s.grant.Permissions.Has(scope) {
			return true
		}
	}
	return false
}

// HasModule checks if the current actor can reach a module. Returns false
// with no actor.
func (s *Session) HasModule(module Module) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return false
	}
	return s.grant.Modules.Has(module)
}

// Modules returns the current actor's reachable modules in sorted order,
// or nil with no actor.
func (s *Session) Modules() []Module {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	return s.grant.Modules.Values()
}

// Permissions returns the current actor's permission scopes in sorted
// order, or nil with no actor.
func (s *Session) Permissions() []Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	return s.grant.Permissions.Values()
}

// WatchStore re-hydrates the session whenever another execution context
// changes the shared backing store. It blocks until ctx is cancelled and is
// meant to run in its own goroutine. Convergence is eventual, not
// transactional: contexts may transiently disagree.
func (s *Session) WatchStore(ctx context.Context) error {
	changes, err := s.store.Watch(ctx)
	if err != nil {
		return err
	}

	// Subscribe first, then read: a record written before the subscription
	// existed fires no signal, so a late watcher adopts the current state
	// up front instead of waiting for a change that already happened.
	if err := s.HydrateFromStore(ctx); err != nil {
		s.logger.Error("authkit: failed to hydrate at watch start", "error", err)
	}

	for key := range changes {
		if key != s.store.Key() {
			continue
		}

		stored, err := s.store.Load(ctx)
		if err != nil {
			if IsNoSession(err) {
				// The record was deleted elsewhere; drop the local actor.
				s.mu.Lock()
				s.current = nil
				s.grant = NewGrant()
				s.mu.Unlock()
				continue
			}
			s.logger.Error("authkit: failed to re-hydrate session", "error", err)
			continue
		}
		s.Hydrate(stored)
	}

	return nil
}

// Close disposes of the session's in-memory state without touching the
// store. Use Logout to also delete the persisted record.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.grant = NewGrant()
}
