// Package authkit provides module and permission derivation for multi-tenant
// event-management applications.
//
// AuthKit decides, for an authenticated actor, which functional modules
// (UI sections / backend capabilities) are reachable and which fine-grained
// permission scopes gate individual actions. It bridges three generations of
// access data into one canonical result: the event-role system (attendee,
// organizer, juror, speaker), organizer sub-functions, and the legacy
// single-string role/profile fields of pre-RBAC user records.
//
// # Core Concepts
//
// Module: a coarse-grained functional area, identified by an opaque string
// such as "mi_perfil" or "contabilidad". Every module grants a fixed bundle
// of permission scopes through the catalog.
//
// Permission: a "resource:action" string like "papers:read" or
// "accounting:write". The reserved scope "admin:all" is a wildcard: its
// presence makes every permission check succeed.
//
// Catalog: the immutable configuration loaded at startup. It maps modules to
// permissions, event roles to base modules (with paid and organizer-function
// conditionals), and legacy role identifiers to permission lists.
//
// Grant: the derived result, a pair of module and permission sets. Derivation
// is a pure function of (user, catalog): it never fails, and malformed or
// missing fields contribute nothing instead of erroring.
//
// # Basic Usage
//
//	// 1. Build the catalog (at application startup)
//	catalog := authkit.DefaultCatalog()
//
//	// or define your own:
//	catalog := authkit.NewCatalog()
//	catalog.Module("contabilidad").
//	    Grants("accounting:read", "accounting:write").
//	    Module("trabajos").
//	    Grants("papers:read", "papers:write")
//	catalog.EventRole("organizador").
//	    Modules("mi_perfil", "aula_virtual", "trabajos").
//	    Function("tesorero", "contabilidad")
//
//	// 2. Create the deriver and session
//	deriver := authkit.NewDeriver(catalog)
//	session := authkit.NewSession(deriver, authkit.NewMemoryStore())
//
//	// 3. Log a user in (credential verification happens elsewhere)
//	session.Login(ctx, &authkit.User{
//	    ID:                "user_123",
//	    Name:              "Ana",
//	    EventRole:         authkit.RoleOrganizer,
//	    OrganizerFunction: authkit.FunctionTreasurer,
//	})
//
//	// 4. Check permissions
//	if session.HasPermission("accounting:write") {
//	    // show the treasury ledger
//	}
//
//	gate := authkit.NewGate(session)
//	if gate.Evaluate([]authkit.Permission{"papers:read", "papers:write"}, true) {
//	    // both scopes held
//	}
//
// # Wildcard Permission
//
// "admin:all" is just another string at derivation time, but every query
// method short-circuits on it before evaluating the requested scopes. An
// actor holding it passes HasPermission, HasAllPermissions and
// HasAnyPermission for any input, including empty scope lists.
//
// # Legacy Records
//
// Stored records that predate the module system carry "role", "roles" and
// "profiles" fields. Session.Hydrate re-derives modules and permissions only
// when the stored record lacks them; records that already carry explicit sets
// are adopted verbatim, so hand-edited permission overrides survive restarts.
//
// # Persistence
//
// The session state is updated in memory first and persisted best-effort.
// SessionStore implementations ship for in-process use (MemoryStore) and
// Redis (RedisStore, with a pub/sub change signal for cross-context
// re-hydration). Backend propagation of permission overrides goes through
// the Propagator interface; the dbkit-backed Service implements it and keeps
// an audit trail of every override.
//
// # Middleware Usage
//
//	mw := authkit.NewMiddleware(session)
//
//	router.Handle("/ledger", mw.RequirePermissions(
//	    []authkit.Permission{"accounting:read"}, true)(ledgerHandler))
//
//	router.Handle("/papers", mw.RequireAnyPermission(
//	    "papers:read", "papers:review")(papersHandler))
package authkit
