package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atikhonov/helpdesk/internal/models"
)

func sampleTickets() []models.Ticket {
	return []models.Ticket{
		{ID: "t1", Status: models.StatusOpen, CreatedBy: "u1"},
		{ID: "t2", Status: models.StatusOpen, CreatedBy: "u2"},
		{ID: "t3", Status: models.StatusResolved, CreatedBy: "u1"},
		{ID: "t4", Status: models.StatusInProgress, CreatedBy: ""},
	}
}

func TestNew_StartsAtHome(t *testing.T) {
	s := New()
	assert.Equal(t, ViewHome, s.View())
	assert.Nil(t, s.Session())
	assert.Empty(t, s.Tickets())
}

func TestReplaceTickets_CopiesInput(t *testing.T) {
	s := New()
	in := sampleTickets()
	s.ReplaceTickets(in)

	// Mutating the caller's slice must not leak into the store.
	in[0].Status = models.StatusResolved
	assert.Equal(t, models.StatusOpen, s.Tickets()[0].Status)

	// Mutating a read copy must not leak either.
	got := s.Tickets()
	got[1].Status = models.StatusResolved
	assert.Equal(t, models.StatusOpen, s.Tickets()[1].Status)
}

func TestAddTicket_GrowsCollection(t *testing.T) {
	s := New()
	s.ReplaceTickets(sampleTickets())

	s.AddTicket(models.Ticket{ID: "t5", Status: models.StatusOpen})
	got := s.Tickets()
	assert.Len(t, got, 5)
	assert.Equal(t, "t5", got[4].ID)
}

func TestSession_ReturnsIsolatedCopy(t *testing.T) {
	s := New()
	s.SetSession(&models.Session{ID: "u1", Email: "a@b.c", Role: models.RoleUser})

	// Mutating a read copy must not leak into the store.
	got := s.Session()
	got.Role = models.RoleAdmin
	got.ID = "tampered"

	again := s.Session()
	assert.Equal(t, "u1", again.ID)
	assert.Equal(t, models.RoleUser, again.Role)
}

func TestVisibleTickets_RoleScoping(t *testing.T) {
	s := New()
	s.ReplaceTickets(sampleTickets())

	// No session: nothing.
	assert.Empty(t, s.VisibleTickets())

	// Plain user: own tickets only.
	s.SetSession(&models.Session{ID: "u1", Role: models.RoleUser})
	visible := s.VisibleTickets()
	assert.Len(t, visible, 2)
	for _, tk := range visible {
		assert.Equal(t, "u1", tk.CreatedBy)
	}

	// Admin: everything, including anonymous tickets.
	s.SetSession(&models.Session{ID: "boss", Role: models.RoleAdmin})
	assert.Len(t, s.VisibleTickets(), 4)

	// Back to a different user after a session change: no staleness.
	s.SetSession(&models.Session{ID: "u2", Role: models.RoleUser})
	visible = s.VisibleTickets()
	assert.Len(t, visible, 1)
	assert.Equal(t, "t2", visible[0].ID)
}

func TestCounters(t *testing.T) {
	s := New()
	s.ReplaceTickets(sampleTickets())

	c := s.Counters()
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 2, c.Open)
	assert.Equal(t, 1, c.InProgress)
	assert.Equal(t, 1, c.Resolved)
	assert.Equal(t, c.Total, c.Open+c.InProgress+c.Resolved)
}

func TestApplyTicketStatusChange_Idempotent(t *testing.T) {
	s := New()
	s.ReplaceTickets(sampleTickets())

	assert.True(t, s.ApplyTicketStatusChange("t1", models.StatusResolved))
	assert.True(t, s.ApplyTicketStatusChange("t1", models.StatusResolved))
	assert.Equal(t, models.StatusResolved, s.Tickets()[0].Status)

	assert.False(t, s.ApplyTicketStatusChange("ghost", models.StatusOpen))
}

func TestSetView(t *testing.T) {
	s := New()
	s.SetView(ViewDashboard)
	assert.Equal(t, ViewDashboard, s.View())
}
