// Package view maps the store's current view identifier to a rendered
// text page and owns the explicit navigation transitions between views.
// Navigation is always a named call; the renderer never decides where
// the user goes next.
package view

import (
	"github.com/atikhonov/helpdesk/internal/client/store"
)

// Router performs view transitions against the store. Every transition
// is an explicit method so callers cannot jump to arbitrary states.
type Router struct {
	store *store.Store
}

func NewRouter(st *store.Store) *Router {
	return &Router{store: st}
}

// GoTo switches to the requested view. The dashboard is only reachable
// with an active session; without one the user lands on the login form
// instead.
func (r *Router) GoTo(v store.ViewID) store.ViewID {
	if v == store.ViewDashboard && r.store.Session() == nil {
		v = store.ViewLogin
	}
	r.store.SetView(v)
	return v
}

// LoginSucceeded redirects to the dashboard after authentication.
func (r *Router) LoginSucceeded() {
	r.store.SetView(store.ViewDashboard)
}

// LoggedOut returns the user to the landing page.
func (r *Router) LoggedOut() {
	r.store.SetView(store.ViewHome)
}

// TicketSubmitted redirects after a successful submission: signed-in
// users see their dashboard, anonymous reporters go back home.
func (r *Router) TicketSubmitted() {
	if r.store.Session() != nil {
		r.store.SetView(store.ViewDashboard)
		return
	}
	r.store.SetView(store.ViewHome)
}
