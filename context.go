package authkit

import (
	"context"
)

type contextKey string

const (
	contextKeyUserID    contextKey = "authkit:user_id"
	contextKeyActorID   contextKey = "authkit:actor_id"
	contextKeyIPAddress contextKey = "authkit:ip_address"
	contextKeyUserAgent contextKey = "authkit:user_agent"
	contextKeyRequestID contextKey = "authkit:request_id"
	contextKeySession   contextKey = "authkit:session"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// WithUserID records the user whose access is being evaluated.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// GetUserID returns the user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyUserID)
}

// WithActorID records who is performing the action. The actor and the user
// differ when an administrator edits someone else's permissions.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID returns the actor ID. When no actor was set explicitly the
// user ID stands in: a user acting on their own record is their own actor.
func GetActorID(ctx context.Context) string {
	if actor := stringFromContext(ctx, contextKeyActorID); actor != "" {
		return actor
	}
	return GetUserID(ctx)
}

// WithIPAddress records the client IP for the audit trail.
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress returns the client IP, or "" when absent.
func GetIPAddress(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyIPAddress)
}

// WithUserAgent records the client user agent for the audit trail.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent returns the client user agent, or "" when absent.
func GetUserAgent(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyUserAgent)
}

// WithRequestID records the correlation ID for the audit trail.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID returns the correlation ID, or "" when absent.
func GetRequestID(ctx context.Context) string {
	return stringFromContext(ctx, contextKeyRequestID)
}

// WithSession places a Session handle in the context. The middleware does
// this on every gated request so handlers can run their own checks.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKeySession, session)
}

// GetSession returns the Session placed by WithSession, or nil.
func GetSession(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKeySession).(*Session); ok {
		return s
	}
	return nil
}

// AuditContext bundles the request metadata attached to audit log entries.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext collects the audit metadata currently in the context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext attaches the non-empty fields of ac to the context.
// Empty fields leave any value already present untouched.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorID != "" {
		ctx = WithActorID(ctx, ac.ActorID)
	}
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
