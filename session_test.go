package authkit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every operation. Used to verify that persistence
// problems never break the in-memory session.
type failingStore struct {
	saves   int
	deletes int
}

func (f *failingStore) Key() string { return DefaultSessionKey }

func (f *failingStore) Load(ctx context.Context) (*User, error) {
	return nil, errors.New("store down")
}

func (f *failingStore) Save(ctx context.Context, user *User) error {
	f.saves++
	return errors.New("store down")
}

func (f *failingStore) Delete(ctx context.Context) error {
	f.deletes++
	return errors.New("store down")
}

func (f *failingStore) Watch(ctx context.Context) (<-chan string, error) {
	return nil, errors.New("store down")
}

// recordingPropagator captures the records pushed through UpdateUser.
type recordingPropagator struct {
	updates []*User
	err     error
}

func (p *recordingPropagator) UpdateUser(ctx context.Context, user *User) error {
	p.updates = append(p.updates, user.Clone())
	return p.err
}

func newTestSession(opts ...SessionOption) *Session {
	return NewSession(NewDeriver(DefaultCatalog()), NewMemoryStore(), opts...)
}

// TestSessionLoginDerivesAndAdopts tests the login flow end to end
func TestSessionLoginDerivesAndAdopts(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{
		ID:                "u1",
		Name:              "Luis",
		EventRole:         RoleOrganizer,
		OrganizerFunction: FunctionTreasurer,
	})

	require.True(t, session.Authenticated())
	current := session.Current()
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)
	// The adopted record carries the derived sets
	assert.ElementsMatch(t,
		[]Module{ModuleProfile, ModuleClassroom, ModulePapers, ModuleAccounting},
		current.Modules)
	assert.True(t, session.HasPermission(PermAccountingWrite))
	assert.True(t, session.HasModule(ModuleAccounting))
}

// TestSessionLoginOverwritesPriorActor tests that login needs no prior logout
func TestSessionLoginOverwritesPriorActor(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Tess", Role: "contabilidad"})
	require.True(t, session.HasPermission(PermAccountingRead))

	session.Login(context.Background(), &User{ID: "u2", Name: "Marta", EventRole: RoleJuror})

	current := session.Current()
	require.NotNil(t, current)
	assert.Equal(t, "u2", current.ID)
	assert.True(t, session.HasPermission(PermPapersReview))
	// The first actor's grant is fully gone
	assert.False(t, session.HasPermission(PermAccountingRead))
}

// TestSessionLoginNilUser tests that a nil record is treated as absent
func TestSessionLoginNilUser(t *testing.T) {
	store := &failingStore{}
	session := NewSession(NewDeriver(DefaultCatalog()), store)
	defer session.Close()

	session.Login(context.Background(), nil)

	assert.False(t, session.Authenticated())
	assert.Nil(t, session.Current())
	assert.False(t, session.HasPermission(PermProfileRead))
	assert.Zero(t, store.saves) // nothing to persist

	// An existing actor survives a nil login
	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})
	session.Login(context.Background(), nil)
	assert.True(t, session.Authenticated())
	assert.Equal(t, "u1", session.Current().ID)
}

// TestSessionLoginDoesNotMutateInput tests that the caller's record is untouched
func TestSessionLoginDoesNotMutateInput(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	user := &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee}
	session.Login(context.Background(), user)

	assert.Nil(t, user.Modules)
	assert.Nil(t, user.Permissions)
}

// TestSessionLogout tests logout and its idempotence
func TestSessionLogout(t *testing.T) {
	store := NewMemoryStore()
	session := NewSession(NewDeriver(DefaultCatalog()), store)
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})
	session.Logout(context.Background())

	assert.False(t, session.Authenticated())
	assert.Nil(t, session.Current())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	// Second logout is a no-op
	session.Logout(context.Background())
	assert.False(t, session.Authenticated())
}

// TestSessionQueriesWithoutActor tests that every query denies with no actor
func TestSessionQueriesWithoutActor(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	assert.False(t, session.Authenticated())
	assert.False(t, session.HasPermission(PermProfileRead))
	assert.False(t, session.HasAllPermissions([]Permission{}))
	assert.False(t, session.HasAllPermissions(nil))
	assert.False(t, session.HasAnyPermission([]Permission{PermProfileRead}))
	assert.False(t, session.HasModule(ModuleProfile))
	assert.Nil(t, session.Modules())
	assert.Nil(t, session.Permissions())
	assert.Nil(t, session.Current())
}

// TestSessionWildcardAbsorbsEverything tests wildcard short-circuiting
func TestSessionWildcardAbsorbsEverything(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Root", Role: "admin"})

	assert.True(t, session.HasPermission(PermAccountingWrite))
	assert.True(t, session.HasPermission("made:up"))
	assert.True(t, session.HasAllPermissions([]Permission{PermPapersRead, PermResearchWrite, "x:y"}))

	// The wildcard even satisfies empty lists, both all and any
	assert.True(t, session.HasAllPermissions(nil))
	assert.True(t, session.HasAnyPermission(nil))
	assert.True(t, session.HasAnyPermission([]Permission{}))
}

// TestSessionEmptyScopeLists tests the empty-list semantics without a wildcard
func TestSessionEmptyScopeLists(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})

	// "all of zero scopes" holds vacuously for an authenticated actor
	assert.True(t, session.HasAllPermissions(nil))
	assert.True(t, session.HasAllPermissions([]Permission{}))

	// "any of zero scopes" never holds for a non-wildcard actor
	assert.False(t, session.HasAnyPermission(nil))
	assert.False(t, session.HasAnyPermission([]Permission{}))
}

// TestSessionHasAllAndAny tests the multi-scope queries
func TestSessionHasAllAndAny(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{
		ID: "u1", Name: "Luis",
		EventRole:         RoleOrganizer,
		OrganizerFunction: FunctionTreasurer,
	})

	assert.True(t, session.HasAllPermissions([]Permission{PermAccountingRead, PermAccountingWrite}))
	assert.False(t, session.HasAllPermissions([]Permission{PermAccountingRead, PermResearchWrite}))
	assert.True(t, session.HasAnyPermission([]Permission{PermResearchWrite, PermAccountingRead}))
	assert.False(t, session.HasAnyPermission([]Permission{PermResearchWrite, PermProgramRead}))
}

// TestSessionUpdatePermissionsExactReplace tests the administrative override
func TestSessionUpdatePermissionsExactReplace(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Root", Role: "admin"})
	require.True(t, session.HasPermission("anything:at_all"))

	// Replace with exactly one scope; the wildcard is gone because it was
	// not explicitly included.
	session.UpdatePermissions(context.Background(), []Permission{PermPapersRead})

	assert.True(t, session.HasPermission(PermPapersRead))
	assert.False(t, session.HasPermission(PermPapersWrite))
	assert.False(t, session.HasPermission(PermissionWildcard))
	assert.Equal(t, []Permission{PermPapersRead}, session.Permissions())

	// Modules are untouched by a permission override
	assert.True(t, session.HasModule(ModuleOrganization))
}

// TestSessionUpdatePermissionsWithoutActor tests the no-actor no-op
func TestSessionUpdatePermissionsWithoutActor(t *testing.T) {
	store := &failingStore{}
	session := NewSession(NewDeriver(DefaultCatalog()), store)
	defer session.Close()

	session.UpdatePermissions(context.Background(), []Permission{PermPapersRead})

	assert.False(t, session.Authenticated())
	assert.Zero(t, store.saves) // no persistence attempt without an actor
}

// TestSessionUpdatePermissionsPropagates tests the backend propagation path
func TestSessionUpdatePermissionsPropagates(t *testing.T) {
	prop := &recordingPropagator{}
	session := NewSession(NewDeriver(DefaultCatalog()), NewMemoryStore(), WithPropagator(prop))
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})
	session.UpdatePermissions(context.Background(), []Permission{PermPapersRead, PermPapersReview})

	require.Len(t, prop.updates, 1)
	assert.Equal(t, "u1", prop.updates[0].ID)
	assert.ElementsMatch(t, []Permission{PermPapersRead, PermPapersReview}, prop.updates[0].Permissions)
}

// TestSessionPersistenceFailuresAreNotFatal tests the best-effort contract
func TestSessionPersistenceFailuresAreNotFatal(t *testing.T) {
	store := &failingStore{}
	prop := &recordingPropagator{err: errors.New("backend down")}
	session := NewSession(NewDeriver(DefaultCatalog()), store,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithPropagator(prop))
	defer session.Close()

	// Login succeeds locally despite the store failing
	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})
	assert.True(t, session.Authenticated())
	assert.True(t, session.HasPermission(PermProfileRead))
	assert.Equal(t, 1, store.saves)

	// The override takes effect locally despite store and propagator failing
	session.UpdatePermissions(context.Background(), []Permission{PermPapersRead})
	assert.Equal(t, []Permission{PermPapersRead}, session.Permissions())
	assert.Equal(t, 2, store.saves)
	assert.Len(t, prop.updates, 1)

	// Logout clears the actor despite the delete failing
	session.Logout(context.Background())
	assert.False(t, session.Authenticated())
	assert.Equal(t, 1, store.deletes)
}

// TestSessionHydrateReDerivesLegacyRecords tests hydration of pre-RBAC records
func TestSessionHydrateReDerivesLegacyRecords(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	// A record without explicit sets gets re-derived
	session.Hydrate(&User{ID: "u1", Name: "Ana", EventRole: RoleAttendee, HasPaid: true})

	assert.True(t, session.Authenticated())
	assert.Equal(t, []Module{ModuleClassroom, ModuleProfile}, session.Modules())
	assert.True(t, session.HasPermission(PermClassroomRead))
}

// TestSessionHydrateAdoptsExplicitSetsVerbatim tests that overrides survive hydration
func TestSessionHydrateAdoptsExplicitSetsVerbatim(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	// The record says organizer but carries a hand-narrowed permission set.
	// Hydration must not widen it back to the derived set.
	session.Hydrate(&User{
		ID:          "u1",
		Name:        "Luis",
		EventRole:   RoleOrganizer,
		Modules:     []Module{ModuleProfile},
		Permissions: []Permission{PermProfileRead},
	})

	assert.Equal(t, []Permission{PermProfileRead}, session.Permissions())
	assert.Equal(t, []Module{ModuleProfile}, session.Modules())
	assert.False(t, session.HasPermission(PermPapersRead))
	assert.False(t, session.HasModule(ModulePapers))
}

// TestSessionHydratePartialSetsReDerive tests that half-written records re-derive
func TestSessionHydratePartialSetsReDerive(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	// Modules present but permissions missing counts as incomplete
	session.Hydrate(&User{
		ID:        "u1",
		Name:      "Ana",
		EventRole: RoleAttendee,
		Modules:   []Module{ModuleProfile},
	})

	assert.True(t, session.HasPermission(PermProfileRead))
}

// TestSessionHydrateNil tests that hydrating nil leaves the session alone
func TestSessionHydrateNil(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})
	session.Hydrate(nil)

	assert.True(t, session.Authenticated())
}

// TestSessionHydrateFromStore tests the load-and-hydrate shortcut
func TestSessionHydrateFromStore(t *testing.T) {
	store := NewMemoryStore()

	first := NewSession(NewDeriver(DefaultCatalog()), store)
	first.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee, HasPaid: true})
	first.Close()

	// A second context sharing the store picks the record up
	second := NewSession(NewDeriver(DefaultCatalog()), store)
	defer second.Close()

	require.NoError(t, second.HydrateFromStore(context.Background()))
	assert.True(t, second.Authenticated())
	assert.True(t, second.HasModule(ModuleClassroom))
}

// TestSessionHydrateFromEmptyStore tests that a missing record is not an error
func TestSessionHydrateFromEmptyStore(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	require.NoError(t, session.HydrateFromStore(context.Background()))
	assert.False(t, session.Authenticated())
}

// TestSessionCurrentReturnsCopy tests that callers cannot mutate session state
func TestSessionCurrentReturnsCopy(t *testing.T) {
	session := newTestSession()
	defer session.Close()

	session.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee})

	current := session.Current()
	current.Permissions = append(current.Permissions, PermissionWildcard)

	assert.False(t, session.HasPermission(PermAccountingWrite))
}

// TestSessionWatchStoreConvergence tests cross-context propagation via the store
func TestSessionWatchStoreConvergence(t *testing.T) {
	store := NewMemoryStore()

	writer := NewSession(NewDeriver(DefaultCatalog()), store)
	defer writer.Close()
	reader := NewSession(NewDeriver(DefaultCatalog()), store)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reader.WatchStore(ctx)
	}()

	writer.Login(context.Background(), &User{ID: "u1", Name: "Root", Role: "admin"})
	waitFor(t, func() bool { return reader.Authenticated() })
	assert.True(t, reader.HasPermission("anything:here"))

	// An override in the writer context narrows the reader too
	writer.UpdatePermissions(context.Background(), []Permission{PermPapersRead})
	waitFor(t, func() bool { return !reader.HasPermission(PermissionWildcard) })
	assert.True(t, reader.HasPermission(PermPapersRead))
	assert.False(t, reader.HasPermission(PermPapersWrite))

	// Deleting the record elsewhere logs the reader out
	writer.Logout(context.Background())
	waitFor(t, func() bool { return !reader.Authenticated() })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

// TestSessionWatchStoreLateSubscriber tests convergence when the record
// predates the subscription. No change signal will ever fire for it, so the
// watcher must adopt the current state when it starts.
func TestSessionWatchStoreLateSubscriber(t *testing.T) {
	store := NewMemoryStore()

	writer := NewSession(NewDeriver(DefaultCatalog()), store)
	defer writer.Close()
	writer.Login(context.Background(), &User{ID: "u1", Name: "Ana", EventRole: RoleAttendee, HasPaid: true})

	// The reader subscribes only after the write
	reader := NewSession(NewDeriver(DefaultCatalog()), store)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = reader.WatchStore(ctx) }()

	waitFor(t, func() bool { return reader.Authenticated() })
	assert.True(t, reader.HasModule(ModuleClassroom))
}

// waitFor polls a condition with a deadline. The watch path is asynchronous
// by design, so tests wait for convergence instead of asserting immediately.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
