package authkit

import (
	"context"
	"sync"
)

// DefaultSessionKey is the well-known storage key the session record is
// written under.
const DefaultSessionKey = "authkit:session"

// SessionStore persists the current session record. Implementations are
// best-effort collaborators: the in-memory session state is always updated
// first, and store failures are logged rather than rolled back.
type SessionStore interface {
	// Key returns the storage key this store writes the record under.
	Key() string

	// Load reads the stored session record. Returns ErrNoSession when
	// nothing is stored.
	Load(ctx context.Context) (*User, error)

	// Save writes the session record.
	Save(ctx context.Context, user *User) error

	// Delete removes the session record. Deleting a missing record is a
	// no-op, not an error.
	Delete(ctx context.Context) error

	// Watch returns a channel of storage keys that changed in other
	// execution contexts sharing the same backing store. It is a trigger
	// for re-hydration, not a data channel. The channel closes when the
	// context is cancelled.
	Watch(ctx context.Context) (<-chan string, error)
}

// Propagator pushes permission changes to the backing user store. The call
// is a single idempotent "update user" request carrying the full record;
// failures are logged by the session, never rolled back.
type Propagator interface {
	UpdateUser(ctx context.Context, user *User) error
}

// MemoryStore is an in-process SessionStore. It is the reference
// implementation used by tests and single-process deployments.
type MemoryStore struct {
	mu       sync.Mutex
	key      string
	record   *User
	watchers []chan string
}

// NewMemoryStore creates a MemoryStore under the default session key.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithKey(DefaultSessionKey)
}

// NewMemoryStoreWithKey creates a MemoryStore under a custom key.
func NewMemoryStoreWithKey(key string) *MemoryStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &MemoryStore{key: key}
}

// Key returns the storage key.
func (s *MemoryStore) Key() string {
	return s.key
}

// Load returns a copy of the stored record, or ErrNoSession.
func (s *MemoryStore) Load(ctx context.Context) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil, ErrNoSession
	}
	return s.record.Clone(), nil
}

// Save stores a copy of the record and notifies watchers.
func (s *MemoryStore) Save(ctx context.Context, user *User) error {
	s.mu.Lock()
	s.record = user.Clone()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes the stored record and notifies watchers.
func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	s.record = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// Watch returns a channel receiving the store key whenever the record
// changes. The channel closes when ctx is cancelled.
func (s *MemoryStore) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 8)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemoryStore) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.watchers {
		select {
		case w <- s.key:
		default:
			// Watcher not keeping up; it will converge on the next signal.
		}
	}
}
