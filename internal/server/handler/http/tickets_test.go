package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/models"
	"github.com/atikhonov/helpdesk/internal/token"
)

type mockTicketService struct {
	CreateFunc       func(ctx context.Context, in models.TicketInput, userID string) (*models.Ticket, error)
	ListFunc         func(ctx context.Context, userID string, role models.Role) ([]models.Ticket, error)
	UpdateStatusFunc func(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error)
	DeleteFunc       func(ctx context.Context, id string) error
}

func (m *mockTicketService) Create(ctx context.Context, in models.TicketInput, userID string) (*models.Ticket, error) {
	return m.CreateFunc(ctx, in, userID)
}
func (m *mockTicketService) List(ctx context.Context, userID string, role models.Role) ([]models.Ticket, error) {
	return m.ListFunc(ctx, userID, role)
}
func (m *mockTicketService) UpdateStatus(ctx context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
	return m.UpdateStatusFunc(ctx, id, status)
}
func (m *mockTicketService) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

const routerSecret = "router-secret"

// newTestRouter wires the full router so middleware and guards are part of
// the test surface.
func newTestRouter(tickets TicketService) http.Handler {
	authHandler := &AuthHandler{AuthService: &mockAuthService{}, Log: zap.NewNop()}
	ticketHandler := &TicketHandler{TicketService: tickets}
	return NewRouter(authHandler, ticketHandler, NewFeedHub(zap.NewNop()), routerSecret, zap.NewNop())
}

func bearer(t *testing.T, uid string, role models.Role) string {
	t.Helper()
	tok, err := token.Sign(routerSecret, uid, uid+"@b.c", role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func TestListTickets_AnonymousGetsEmptyList(t *testing.T) {
	svc := &mockTicketService{
		ListFunc: func(_ context.Context, userID string, role models.Role) ([]models.Ticket, error) {
			if userID != "" {
				t.Errorf("anonymous request carried uid %q", userID)
			}
			return []models.Ticket{}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	var body struct {
		Items []models.Ticket `json:"items"`
		Total int             `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 0 || len(body.Items) != 0 {
		t.Errorf("anonymous list = %+v; want empty", body)
	}
}

func TestListTickets_ScopePassedFromSession(t *testing.T) {
	svc := &mockTicketService{
		ListFunc: func(_ context.Context, userID string, role models.Role) ([]models.Ticket, error) {
			if userID != "u1" || role != models.RoleAdmin {
				t.Errorf("scope uid=%q role=%q; want u1/admin", userID, role)
			}
			return []models.Ticket{{ID: "t1"}, {ID: "t2"}}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/", nil)
	req.Header.Set("Authorization", bearer(t, "u1", models.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateTicket_Anonymous(t *testing.T) {
	svc := &mockTicketService{
		CreateFunc: func(_ context.Context, in models.TicketInput, userID string) (*models.Ticket, error) {
			if userID != "" {
				t.Errorf("anonymous create carried uid %q", userID)
			}
			return &models.Ticket{ID: "t1", Category: in.Category, Status: models.StatusOpen}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tickets/",
		strings.NewReader(`{"category":"Hardware","description":"Monitor not turning on"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201; body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"open"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUpdateStatus_RequiresAdmin(t *testing.T) {
	svc := &mockTicketService{
		UpdateStatusFunc: func(_ context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
			return &models.Ticket{ID: id, Status: status}, nil
		},
	}
	router := newTestRouter(svc)

	body := `{"status":"resolved"}`

	// No session at all.
	req := httptest.NewRequest(http.MethodPatch, "/api/tickets/t1/status", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d; want 401", rec.Code)
	}

	// Plain user.
	req = httptest.NewRequest(http.MethodPatch, "/api/tickets/t1/status", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, "u1", models.RoleUser))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user status = %d; want 403", rec.Code)
	}

	// Admin.
	req = httptest.NewRequest(http.MethodPatch, "/api/tickets/t1/status", strings.NewReader(body))
	req.Header.Set("Authorization", bearer(t, "boss", models.RoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d; want 200; body=%s", rec.Code, rec.Body.String())
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc := &mockTicketService{
		UpdateStatusFunc: func(context.Context, string, models.TicketStatus) (*models.Ticket, error) {
			return nil, models.ErrInvalidStatus
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/tickets/t1/status",
		strings.NewReader(`{"status":"closed"}`))
	req.Header.Set("Authorization", bearer(t, "boss", models.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestDeleteTicket(t *testing.T) {
	svc := &mockTicketService{
		DeleteFunc: func(_ context.Context, id string) error {
			if id != "t1" {
				return models.ErrNotFound
			}
			return nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/tickets/t1", nil)
	req.Header.Set("Authorization", bearer(t, "boss", models.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d; want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/tickets/ghost", nil)
	req.Header.Set("Authorization", bearer(t, "boss", models.RoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}
