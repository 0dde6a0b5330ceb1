package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atikhonov/helpdesk/internal/middleware"
	"github.com/atikhonov/helpdesk/internal/models"
)

// TicketService defines the ticket operations required by the HTTP
// handlers.
type TicketService interface {
	// Create submits a ticket; userID is empty for anonymous callers.
	Create(ctx context.Context, in models.TicketInput, userID string) (*models.Ticket, error)
	// List returns the tickets visible to the caller.
	List(ctx context.Context, userID string, role models.Role) ([]models.Ticket, error)
	// UpdateStatus moves a ticket into the given status.
	UpdateStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error)
	// Delete soft-deletes a ticket.
	Delete(ctx context.Context, id string) error
}

// TicketHandler handles ticket listing, submission and status updates.
type TicketHandler struct {
	TicketService TicketService
}

// List handles GET /api/tickets. Scope comes from the request context:
// admins get everything, users their own tickets, anonymous callers an
// empty list.
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())

	items, err := h.TicketService.List(r.Context(), uid, role)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// Create handles POST /api/tickets. Authentication is optional: an
// anonymous submission succeeds with no creator reference.
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.TicketInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	uid := middleware.GetUserID(r.Context())
	t, err := h.TicketService.Create(r.Context(), in, uid)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateStatus handles PATCH /api/tickets/{id}/status. The admin-only
// guard is applied in the router.
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.TicketStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	t, err := h.TicketService.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, t)
	case errors.Is(err, models.ErrInvalidStatus):
		http.Error(w, "invalid status", http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Delete handles DELETE /api/tickets/{id}. Admin-only; the front end has
// no control wired to it.
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	err := h.TicketService.Delete(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
