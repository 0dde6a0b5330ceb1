// Package store holds the client's in-memory application state: the
// current session, the ticket collection and the active view. It is the
// single source of truth the rest of the client reads and mutates.
// Mutation is synchronous and performs no I/O; loading data into the
// store is the sync layer's job.
package store

import (
	"sync"

	"github.com/atikhonov/helpdesk/internal/models"
)

// ViewID names one of the fixed UI sections. Exactly one is active at a
// time.
type ViewID string

const (
	ViewHome      ViewID = "home"
	ViewLogin     ViewID = "login"
	ViewRegister  ViewID = "register"
	ViewSubmit    ViewID = "submit"
	ViewDashboard ViewID = "dashboard"
	ViewRecover   ViewID = "recover"
	ViewReset     ViewID = "reset"
)

// Counts are the dashboard aggregate counters over the full ticket
// collection.
type Counts struct {
	Total      int
	Open       int
	InProgress int
	Resolved   int
}

// Store is the client state container. Every mutation leaves it fully
// consistent before returning; callbacks scheduled between mutations
// never observe a half-updated state.
type Store struct {
	mu      sync.Mutex
	session *models.Session
	tickets []models.Ticket
	view    ViewID
}

// New creates an empty store showing the home view.
func New() *Store {
	return &Store{view: ViewHome}
}

// Session returns a copy of the current session, or nil. Mutating the
// copy does not affect the store; changes go through SetSession.
func (s *Store) Session() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// SetSession installs (or, with nil, clears) the session.
func (s *Store) SetSession(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

// Tickets returns a copy of the full ticket collection.
func (s *Store) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// ReplaceTickets swaps the ticket collection wholesale. Refreshes are
// idempotent and last-write-wins; there is no incremental merge.
func (s *Store) ReplaceTickets(tickets []models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = make([]models.Ticket, len(tickets))
	copy(s.tickets, tickets)
}

// AddTicket appends one ticket to the collection, reflecting a
// successful submission immediately instead of waiting for the next
// refresh.
func (s *Store) AddTicket(t models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
}

// ApplyTicketStatusChange updates one ticket's status in place. It
// reports whether the ticket was present; applying an identical status
// again succeeds and changes nothing.
func (s *Store) ApplyTicketStatusChange(id string, status models.TicketStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets[i].Status = status
			return true
		}
	}
	return false
}

// View returns the active view.
func (s *Store) View() ViewID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetView switches the active view.
func (s *Store) SetView(v ViewID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// VisibleTickets derives the role-scoped view of the collection: admins
// see everything, users only their own tickets, no session sees nothing.
// Recomputed on every call rather than cached so a role or session change
// can never serve stale scope.
func (s *Store) VisibleTickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return []models.Ticket{}
	}
	if s.session.Role == models.RoleAdmin {
		out := make([]models.Ticket, len(s.tickets))
		copy(out, s.tickets)
		return out
	}
	out := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if t.CreatedBy == s.session.ID {
			out = append(out, t)
		}
	}
	return out
}

// Counters aggregates statuses over the full ticket collection.
func (s *Store) Counters() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Counts{Total: len(s.tickets)}
	for _, t := range s.tickets {
		switch t.Status {
		case models.StatusOpen:
			c.Open++
		case models.StatusInProgress:
			c.InProgress++
		case models.StatusResolved:
			c.Resolved++
		}
	}
	return c
}
