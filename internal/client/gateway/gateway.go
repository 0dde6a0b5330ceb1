// Package gateway abstracts over whichever backend persists tickets and
// users. The rest of the client only sees this interface; the concrete
// variant (local file or remote HTTP) is chosen once at startup by
// configuration.
package gateway

import (
	"context"

	"github.com/atikhonov/helpdesk/internal/models"
)

// Gateway is the capability set every backend variant provides. Every
// mutating call is assumed network-bound and fallible; failures are
// reported explicitly so the sync layer can decide on user-visible
// messaging.
type Gateway interface {
	// Authenticate verifies credentials and establishes a session. The
	// session is persisted to the durable slot for later restore.
	Authenticate(ctx context.Context, email, password string) (*models.Session, error)
	// Register creates an account and establishes a session. A taken
	// email yields models.ErrDuplicateEmail.
	Register(ctx context.Context, email, password, fullName string) (*models.Session, error)
	// EndSession terminates the session and clears the durable slot.
	EndSession(ctx context.Context, s *models.Session) error
	// RestoreSession loads the previously persisted session, if any.
	// Best-effort: absence is not an error.
	RestoreSession() *models.Session
	// CreateTicket submits a ticket. A nil session is allowed; the
	// ticket then carries no creator reference.
	CreateTicket(ctx context.Context, s *models.Session, in models.TicketInput) (*models.Ticket, error)
	// ListTickets returns the tickets visible to the session: admins see
	// all, users their own, and a nil session yields an empty sequence
	// rather than an error.
	ListTickets(ctx context.Context, s *models.Session) ([]models.Ticket, error)
	// UpdateTicketStatus moves a ticket to the given status. Admin-only.
	UpdateTicketStatus(ctx context.Context, s *models.Session, id string, status models.TicketStatus) (*models.Ticket, error)
	// DeleteTicket removes a ticket. The capability exists at this level
	// but no UI control invokes it.
	DeleteTicket(ctx context.Context, s *models.Session, id string) error
	// RequestPasswordReset starts the password-recovery flow for email.
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword consumes a recovery token and sets a new password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Subscription is a live change-feed registration.
type Subscription interface {
	// Close terminates the subscription.
	Close() error
}

// Subscribable is implemented by gateways that can push change
// notifications. Gateways without it degrade gracefully to polling.
type Subscribable interface {
	// SubscribeTicketChanges invokes onChange whenever the backend
	// reports a change to the ticket collection. The callback carries no
	// payload; subscribers re-fetch.
	SubscribeTicketChanges(ctx context.Context, onChange func()) (Subscription, error)
}
