package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/atikhonov/helpdesk/internal/models"
)

// TicketRepository defines the persistence operations needed by the
// TicketService.
type TicketRepository interface {
	ListAll(ctx context.Context) ([]models.Ticket, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Ticket, error)
	Create(ctx context.Context, t *models.Ticket) error
	UpdateStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error)
	SoftDelete(ctx context.Context, id string) error
}

// ChangeNotifier is told after every successful ticket mutation so that
// subscribed clients can refresh. May be nil.
type ChangeNotifier interface {
	NotifyTicketsChanged()
}

// TicketService implements ticket business logic.
type TicketService struct {
	repo     TicketRepository
	notifier ChangeNotifier
}

// NewTicketService constructs a TicketService. notifier may be nil when no
// push channel exists.
func NewTicketService(repo TicketRepository, notifier ChangeNotifier) *TicketService {
	return &TicketService{repo: repo, notifier: notifier}
}

func (s *TicketService) notify() {
	if s.notifier != nil {
		s.notifier.NotifyTicketsChanged()
	}
}

// Create submits a new ticket. userID is empty for anonymous submissions;
// the ticket then keeps the contact fields, otherwise they are dropped in
// favor of the creator reference.
func (s *TicketService) Create(ctx context.Context, in models.TicketInput, userID string) (*models.Ticket, error) {
	if in.Category == "" {
		return nil, models.NewValidationError("category", "must not be empty")
	}
	if in.Description == "" {
		return nil, models.NewValidationError("description", "must not be empty")
	}

	t := &models.Ticket{
		ID:          uuid.NewString(),
		Category:    in.Category,
		Description: in.Description,
		Department:  in.Department,
		Status:      models.StatusOpen,
		CreatedBy:   userID,
		Attachment:  in.Attachment,
	}
	if userID == "" {
		t.ContactName = in.ContactName
		t.ContactDept = in.ContactDept
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.notify()
	return t, nil
}

// List returns the tickets visible to the caller: admins see everything,
// users see their own, and an anonymous caller gets an empty list rather
// than an error.
func (s *TicketService) List(ctx context.Context, userID string, role models.Role) ([]models.Ticket, error) {
	if userID == "" {
		return []models.Ticket{}, nil
	}
	if role == models.RoleAdmin {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByCreator(ctx, userID)
}

// UpdateStatus moves a ticket to the given status. Any transition between
// the three known statuses is allowed; the caller's admin role is enforced
// at the HTTP layer.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
	if !models.ValidStatus(status) {
		return nil, models.ErrInvalidStatus
	}
	t, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.notify()
	return t, nil
}

// Delete soft-deletes a ticket. Exposed at the API level only; no UI
// control invokes it.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}
