package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikhonov/helpdesk/internal/models"
)

const testAdminEmail = "admin@helpdesk.local"

func newLocal(t *testing.T) *LocalGateway {
	t.Helper()
	dir := t.TempDir()
	g, err := NewLocalGateway(
		filepath.Join(dir, "data.json"),
		filepath.Join(dir, "session.json"),
		testAdminEmail,
	)
	require.NoError(t, err)
	return g
}

func TestLocalGateway_RegisterAndAuthenticate(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	sess, err := g.Register(ctx, "Me@Example.com", "secret1", "Me Myself")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "me@example.com", sess.Email)
	assert.Equal(t, models.RoleUser, sess.Role)

	_, err = g.Register(ctx, "me@example.com", "another1", "Other")
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	got, err := g.Authenticate(ctx, "me@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = g.Authenticate(ctx, "me@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = g.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLocalGateway_RegisterValidation(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	var verr *models.ValidationError
	_, err := g.Register(ctx, "", "secret1", "Me")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Field)

	_, err = g.Register(ctx, "me@example.com", "short", "Me")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "password", verr.Field)

	_, err = g.Register(ctx, "me@example.com", "secret1", "  ")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
}

func TestLocalGateway_AdminEmailEscalation(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	// The account is stored as a plain user, but every session
	// establishment for the designated email yields admin.
	sess, err := g.Register(ctx, testAdminEmail, "secret1", "Operator")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.Equal(t, models.RoleUser, g.findUser(testAdminEmail).Role)

	sess, err = g.Authenticate(ctx, testAdminEmail, "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Role)
}

func TestLocalGateway_RestoreReappliesEscalation(t *testing.T) {
	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.json")

	// A stale slot from before the operator set the admin email still
	// says "user"; restore must not trust it.
	raw, err := json.Marshal(models.Session{
		ID: "u1", Email: testAdminEmail, Role: models.RoleUser,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sessionPath, raw, 0o600))

	g, err := NewLocalGateway(filepath.Join(dir, "data.json"), sessionPath, testAdminEmail)
	require.NoError(t, err)

	sess := g.RestoreSession()
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.ID)
	assert.Equal(t, models.RoleAdmin, sess.Role)
}

func TestLocalGateway_SessionLifecycle(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	sess, err := g.Register(ctx, "me@example.com", "secret1", "Me")
	require.NoError(t, err)

	restored := g.RestoreSession()
	require.NotNil(t, restored)
	assert.Equal(t, sess.ID, restored.ID)
	assert.Equal(t, sess.Email, restored.Email)
	assert.Equal(t, sess.Role, restored.Role)

	require.NoError(t, g.EndSession(ctx, sess))
	assert.Nil(t, g.RestoreSession())
}

func TestLocalGateway_DataSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	ctx := context.Background()

	g1, err := NewLocalGateway(dataPath, filepath.Join(dir, "s1.json"), testAdminEmail)
	require.NoError(t, err)
	_, err = g1.Register(ctx, "me@example.com", "secret1", "Me")
	require.NoError(t, err)
	_, err = g1.CreateTicket(ctx, nil, models.TicketInput{Category: "Hardware", Description: "dead fan"})
	require.NoError(t, err)

	g2, err := NewLocalGateway(dataPath, filepath.Join(dir, "s2.json"), testAdminEmail)
	require.NoError(t, err)
	_, err = g2.Authenticate(ctx, "me@example.com", "secret1")
	require.NoError(t, err)
	admin := &models.Session{ID: "x", Role: models.RoleAdmin}
	tickets, err := g2.ListTickets(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestLocalGateway_AnonymousAndAuthedTickets(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	anon, err := g.CreateTicket(ctx, nil, models.TicketInput{
		Category:    "Hardware",
		Description: "Monitor not turning on",
		Department:  "IT",
		ContactName: "Walk-in",
		ContactDept: "Lobby",
	})
	require.NoError(t, err)
	assert.Empty(t, anon.CreatedBy)
	assert.Equal(t, models.StatusOpen, anon.Status)
	assert.Equal(t, "Walk-in", anon.ContactName)

	sess := &models.Session{ID: "u1", Role: models.RoleUser}
	mine, err := g.CreateTicket(ctx, sess, models.TicketInput{
		Category:    "Software",
		Description: "License expired",
		ContactName: "ignored when signed in",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", mine.CreatedBy)
	assert.Empty(t, mine.ContactName)
}

func TestLocalGateway_CreateTicketValidation(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	var verr *models.ValidationError
	_, err := g.CreateTicket(ctx, nil, models.TicketInput{Description: "no category"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "category", verr.Field)

	_, err = g.CreateTicket(ctx, nil, models.TicketInput{Category: "Hardware"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "description", verr.Field)
}

func TestLocalGateway_ListScoping(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	u1 := &models.Session{ID: "u1", Role: models.RoleUser}
	u2 := &models.Session{ID: "u2", Role: models.RoleUser}
	admin := &models.Session{ID: "boss", Role: models.RoleAdmin}

	_, err := g.CreateTicket(ctx, u1, models.TicketInput{Category: "a", Description: "d"})
	require.NoError(t, err)
	_, err = g.CreateTicket(ctx, u2, models.TicketInput{Category: "b", Description: "d"})
	require.NoError(t, err)
	_, err = g.CreateTicket(ctx, nil, models.TicketInput{Category: "c", Description: "d"})
	require.NoError(t, err)

	got, err := g.ListTickets(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = g.ListTickets(ctx, u1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].CreatedBy)

	got, err = g.ListTickets(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLocalGateway_UpdateStatus(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()
	admin := &models.Session{ID: "boss", Role: models.RoleAdmin}
	user := &models.Session{ID: "u1", Role: models.RoleUser}

	tk, err := g.CreateTicket(ctx, user, models.TicketInput{Category: "a", Description: "d"})
	require.NoError(t, err)

	_, err = g.UpdateTicketStatus(ctx, user, tk.ID, models.StatusResolved)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = g.UpdateTicketStatus(ctx, admin, tk.ID, models.TicketStatus("closed"))
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	_, err = g.UpdateTicketStatus(ctx, admin, "missing", models.StatusResolved)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := g.UpdateTicketStatus(ctx, admin, tk.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)

	// Applying the same transition again is a no-op, not an error.
	got, err = g.UpdateTicketStatus(ctx, admin, tk.ID, models.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestLocalGateway_SoftDeleteHidesTicket(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()
	admin := &models.Session{ID: "boss", Role: models.RoleAdmin}
	user := &models.Session{ID: "u1", Role: models.RoleUser}

	tk, err := g.CreateTicket(ctx, user, models.TicketInput{Category: "a", Description: "d"})
	require.NoError(t, err)

	assert.ErrorIs(t, g.DeleteTicket(ctx, user, tk.ID), models.ErrUnauthorized)
	require.NoError(t, g.DeleteTicket(ctx, admin, tk.ID))
	assert.ErrorIs(t, g.DeleteTicket(ctx, admin, tk.ID), models.ErrNotFound)

	got, err := g.ListTickets(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = g.UpdateTicketStatus(ctx, admin, tk.ID, models.StatusResolved)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLocalGateway_PasswordResetFlow(t *testing.T) {
	g := newLocal(t)
	ctx := context.Background()

	_, err := g.Register(ctx, "me@example.com", "secret1", "Me")
	require.NoError(t, err)

	assert.ErrorIs(t, g.RequestPasswordReset(ctx, "nobody@example.com"), models.ErrUnknownUser)
	require.NoError(t, g.RequestPasswordReset(ctx, "me@example.com"))

	token := g.PendingResetToken("me@example.com")
	require.NotEmpty(t, token)

	var verr *models.ValidationError
	err = g.ResetPassword(ctx, token, "short")
	require.True(t, errors.As(err, &verr))

	assert.ErrorIs(t, g.ResetPassword(ctx, "bogus-token", "newsecret"), models.ErrNotFound)

	require.NoError(t, g.ResetPassword(ctx, token, "newsecret"))
	// The token is single-use.
	assert.ErrorIs(t, g.ResetPassword(ctx, token, "again-newsecret"), models.ErrNotFound)

	_, err = g.Authenticate(ctx, "me@example.com", "secret1")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = g.Authenticate(ctx, "me@example.com", "newsecret")
	assert.NoError(t, err)
}
