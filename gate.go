package authkit

// Gate is a stateless decision point used at authorization checkpoints
// (page render, action button, API handler) to decide allow or deny for a
// required scope set. It performs no side effects and does not log denials;
// producing the fallback outcome is the caller's concern.
type Gate struct {
	session *Session
}

// NewGate creates a Gate over a session.
func NewGate(session *Session) *Gate {
	return &Gate{session: session}
}

// Evaluate decides allow/deny for the required scopes. With requireAll true
// every scope must be held; with requireAll false one held scope suffices.
// Without a current actor the result is always false.
func (g *Gate) Evaluate(required []Permission, requireAll bool) bool {
	if g == nil || g.session == nil {
		return false
	}
	if requireAll {
		return g.session.HasAllPermissions(required)
	}
	return g.session.HasAnyPermission(required)
}

// RequireAll evaluates with require-all semantics, the default for callers
// that do not specify otherwise.
func (g *Gate) RequireAll(required ...Permission) bool {
	return g.Evaluate(required, true)
}

// RequireAny evaluates with require-any semantics.
func (g *Gate) RequireAny(required ...Permission) bool {
	return g.Evaluate(required, false)
}
