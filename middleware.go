package authkit

import (
	"net/http"
)

// Middleware provides HTTP middleware for permission and module gating at
// request checkpoints.
type Middleware struct {
	session      *Session
	gate         *Gate
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := authkit.NewMiddleware(session,
//	    authkit.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
//	        renderAccessDenied(w)
//	    }),
//	)
func NewMiddleware(session *Session, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		session:      session,
		gate:         NewGate(session),
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithErrorHandler sets a custom denial handler. The handler produces the
// fallback outcome (access-denied view, JSON error, redirect) when the gate
// denies.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsNoSession(err) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RequirePermissions creates middleware that gates the request on a scope
// set. With requireAll true every scope must be held; with requireAll false
// one suffices.
//
// Example:
//
//	router.Handle("/ledger", mw.RequirePermissions(
//	    []authkit.Permission{"accounting:read", "accounting:write"}, true)(handler))
func (m *Middleware) RequirePermissions(required []Permission, requireAll bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.session.Authenticated() {
				m.errorHandler(w, r, NewError(ErrNoSession, "authentication required"))
				return
			}

			if !m.gate.Evaluate(required, requireAll) {
				err := NewError(ErrUnauthorized, "missing required permission")
				if current := m.session.Current(); current != nil {
					err = err.WithUser(current.ID)
				}
				m.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), m.session)))
		})
	}
}

// RequireAnyPermission creates middleware that passes when the actor holds
// at least one of the scopes.
//
// Example:
//
//	router.Handle("/papers", mw.RequireAnyPermission("papers:read", "papers:review")(handler))
func (m *Middleware) RequireAnyPermission(required ...Permission) func(http.Handler) http.Handler {
	return m.RequirePermissions(required, false)
}

// RequireModule creates middleware that gates the request on module
// reachability.
//
// Example:
//
//	router.Handle("/tesoreria", mw.RequireModule(authkit.ModuleAccounting)(handler))
func (m *Middleware) RequireModule(module Module) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.session.Authenticated() {
				m.errorHandler(w, r, NewError(ErrNoSession, "authentication required"))
				return
			}

			if !m.session.HasModule(module) {
				err := NewError(ErrUnauthorized, "module not reachable").WithModule(module)
				if current := m.session.Current(); current != nil {
					err = err.WithUser(current.ID)
				}
				m.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), m.session)))
		})
	}
}

// LoadSession creates middleware that places the Session in the request
// context without gating. Use this when the handler does its own checks.
//
// Example:
//
//	router.Handle("/dashboard", mw.LoadSession()(dashboardHandler))
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    session := authkit.GetSession(r.Context())
//	    if session.HasModule(authkit.ModuleAccounting) {
//	        // show the treasury card
//	    }
//	}
func (m *Middleware) LoadSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), m.session)))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context for use in permission override
// operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Set actor and user from the current session, if any
			if current := m.session.Current(); current != nil {
				ctx = WithActorID(ctx, current.ID)
				ctx = WithUserID(ctx, current.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
