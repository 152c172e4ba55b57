// Package shell is the terminal front end: the landing, auth and dashboard
// views, navigation between them under the session guard, and a line
// oriented command interpreter.
package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"

	augment "github.com/augmentlab/augment-go"
	"github.com/augmentlab/augment-go/authflow"
	"github.com/augmentlab/augment-go/blob"
	"github.com/augmentlab/augment-go/forms"
	"github.com/augmentlab/augment-go/session"
)

// MsgNotAuthorized is shown by the profile view when the token is rejected.
const MsgNotAuthorized = "Not authorized"

// View is one top-level screen.
type View int

const (
	ViewLanding View = iota
	ViewAuth
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewAuth:
		return "auth"
	case ViewDashboard:
		return "dashboard"
	default:
		return "landing"
	}
}

// ParseView accepts the names printed by View.String.
func ParseView(s string) (View, error) {
	switch strings.ToLower(s) {
	case "landing", "home":
		return ViewLanding, nil
	case "auth", "login":
		return ViewAuth, nil
	case "dashboard":
		return ViewDashboard, nil
	}
	return ViewLanding, fmt.Errorf("unknown view %q", s)
}

// AuthAPI is what the auth view and profile need from the server.
type AuthAPI interface {
	authflow.API
	Profile(ctx context.Context) (augment.ProfileResponse, error)
}

// Services are the long-lived dependencies shared by every view.
type Services struct {
	Auth      AuthAPI
	Augment   forms.Augmenter
	Session   *session.Session
	Registry  *blob.Registry
	Deliverer forms.Deliverer
}

// App tracks the current view. Entering the dashboard is guarded by the
// session; leaving it closes its forms.
type App struct {
	svc Services

	mu   sync.Mutex
	view View
	flow *authflow.Flow
	dash *Dashboard
}

// NewApp starts on the landing view.
func NewApp(svc Services) *App {
	if svc.Registry == nil {
		svc.Registry = blob.NewRegistry()
	}
	a := &App{svc: svc}
	a.flow = authflow.New(svc.Auth, svc.Session, a)
	return a
}

// View returns the current view.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Flow returns the auth view's state machine.
func (a *App) Flow() *authflow.Flow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flow
}

// Dashboard returns the mounted dashboard, or nil outside it.
func (a *App) Dashboard() *Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dash
}

// Session returns the shared session.
func (a *App) Session() *session.Session { return a.svc.Session }

// Navigate switches to v and returns the view actually shown, which is
// ViewAuth when the dashboard guard rejects the session.
func (a *App) Navigate(v View) View {
	if v == ViewDashboard {
		guard := session.Guard{Session: a.svc.Session, Nav: a}
		if !guard.RequireSession() {
			return a.View()
		}
	}
	a.setView(v)
	return v
}

// NavigateToAuth implements session.Navigator.
func (a *App) NavigateToAuth() { a.setView(ViewAuth) }

// NavigateToDashboard implements authflow.Navigator.
func (a *App) NavigateToDashboard() { a.Navigate(ViewDashboard) }

func (a *App) setView(v View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if v == a.view {
		return
	}
	if a.view == ViewDashboard && a.dash != nil {
		a.dash.Close()
		a.dash = nil
	}
	switch v {
	case ViewAuth:
		a.flow = authflow.New(a.svc.Auth, a.svc.Session, a)
	case ViewDashboard:
		a.dash = NewDashboard(forms.Deps{
			API:       a.svc.Augment,
			Registry:  a.svc.Registry,
			Deliverer: a.svc.Deliverer,
		})
	}
	a.view = v
}

// Logout clears the session and returns to the auth view.
func (a *App) Logout() error {
	return session.Guard{Session: a.svc.Session, Nav: a}.Logout()
}

// Profile returns the identity the server associates with the token, or
// MsgNotAuthorized. Without a session it redirects to auth first.
func (a *App) Profile(ctx context.Context) string {
	guard := session.Guard{Session: a.svc.Session, Nav: a}
	if !guard.RequireSession() {
		return MsgNotAuthorized
	}
	resp, err := a.svc.Auth.Profile(ctx)
	if err != nil || resp.LoggedInAs == "" {
		return MsgNotAuthorized
	}
	return resp.LoggedInAs
}

// Close unmounts the dashboard, releasing every result.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dash != nil {
		a.dash.Close()
		a.dash = nil
	}
}
