package session

// Navigator receives the guard's redirects.
type Navigator interface {
	NavigateToAuth()
}

// Guard protects views that need a session. It is evaluated synchronously
// on entry; there are no timers or background refresh.
type Guard struct {
	Session *Session
	Nav     Navigator
}

// RequireSession reports whether a token is present. When it is not, the
// guard redirects to the auth view and the caller must render nothing.
func (g Guard) RequireSession() bool {
	if g.Session.Authenticated() {
		return true
	}
	if g.Nav != nil {
		g.Nav.NavigateToAuth()
	}
	return false
}

// Logout clears the token and redirects to the auth view. The redirect
// happens even if clearing fails.
func (g Guard) Logout() error {
	err := g.Session.Clear()
	if g.Nav != nil {
		g.Nav.NavigateToAuth()
	}
	return err
}
