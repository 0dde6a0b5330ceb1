package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atikhonov/helpdesk/internal/models"
)

// RemoteGateway talks to the hosted help-desk backend over HTTP/JSON,
// authenticating with a bearer token, and subscribes to its websocket
// change feed for push refresh.
type RemoteGateway struct {
	client     *http.Client
	baseURL    string
	slot       *SessionSlot
	adminEmail string
}

// NewRemoteGateway creates a gateway for the backend at baseURL.
// adminEmail drives the restore-time role escalation; pass the same value
// the server is configured with. A nil client gets a sane default.
func NewRemoteGateway(baseURL, sessionPath, adminEmail string, client *http.Client) *RemoteGateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteGateway{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		slot:       NewSessionSlot(sessionPath),
		adminEmail: adminEmail,
	}
}

// doJSON performs one API call. A non-nil session adds the bearer header;
// body and out may be nil. The response status is returned alongside any
// transport error so callers can map statuses to the error taxonomy.
func (g *RemoteGateway) doJSON(ctx context.Context, method, path string, s *models.Session, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// sessionPayload mirrors the server's register/login response.
type sessionPayload struct {
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

func (g *RemoteGateway) establish(p sessionPayload) (*models.Session, error) {
	sess := &models.Session{
		ID:    p.User.ID,
		Email: p.User.Email,
		Name:  p.User.Name,
		Role:  p.User.Role,
		Token: p.Token,
	}
	if err := g.slot.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// Authenticate implements Gateway.
func (g *RemoteGateway) Authenticate(ctx context.Context, email, password string) (*models.Session, error) {
	var payload sessionPayload
	status, err := g.doJSON(ctx, http.MethodPost, "/api/auth/login", nil,
		map[string]string{"email": email, "password": password}, &payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return g.establish(payload)
	case http.StatusUnauthorized:
		return nil, models.ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("login: unexpected status %d", status)
	}
}

// Register implements Gateway.
func (g *RemoteGateway) Register(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	var payload sessionPayload
	status, err := g.doJSON(ctx, http.MethodPost, "/api/auth/register", nil,
		map[string]string{"email": email, "name": fullName, "password": password}, &payload)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusCreated:
		return g.establish(payload)
	case http.StatusConflict:
		return nil, models.ErrDuplicateEmail
	case http.StatusBadRequest:
		return nil, models.NewValidationError("input", "rejected by backend")
	default:
		return nil, fmt.Errorf("register: unexpected status %d", status)
	}
}

// EndSession implements Gateway. The slot is cleared even when the
// backend call fails; the local session must not outlive an explicit
// logout.
func (g *RemoteGateway) EndSession(ctx context.Context, s *models.Session) error {
	_, err := g.doJSON(ctx, http.MethodPost, "/api/auth/logout", s, nil, nil)
	if clearErr := g.slot.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

// RestoreSession implements Gateway. The escalation rule is re-applied at
// restore time, matching login-time behavior.
func (g *RemoteGateway) RestoreSession() *models.Session {
	sess := g.slot.Load()
	if sess == nil {
		return nil
	}
	sess.Role = models.EffectiveRole(g.adminEmail, sess.Email, sess.Role)
	return sess
}

// CreateTicket implements Gateway.
func (g *RemoteGateway) CreateTicket(ctx context.Context, s *models.Session, in models.TicketInput) (*models.Ticket, error) {
	var t models.Ticket
	status, err := g.doJSON(ctx, http.MethodPost, "/api/tickets", s, in, &t)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusCreated:
		return &t, nil
	case http.StatusBadRequest:
		return nil, models.NewValidationError("input", "rejected by backend")
	default:
		return nil, fmt.Errorf("create ticket: unexpected status %d", status)
	}
}

// listPayload mirrors the server's list response.
type listPayload struct {
	Items []models.Ticket `json:"items"`
	Total int             `json:"total"`
}

// ListTickets implements Gateway. Scoping happens server-side; an
// unauthenticated call legitimately yields an empty collection.
func (g *RemoteGateway) ListTickets(ctx context.Context, s *models.Session) ([]models.Ticket, error) {
	var payload listPayload
	status, err := g.doJSON(ctx, http.MethodGet, "/api/tickets", s, nil, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list tickets: unexpected status %d", status)
	}
	if payload.Items == nil {
		return []models.Ticket{}, nil
	}
	return payload.Items, nil
}

// UpdateTicketStatus implements Gateway.
func (g *RemoteGateway) UpdateTicketStatus(ctx context.Context, s *models.Session, id string, status models.TicketStatus) (*models.Ticket, error) {
	var t models.Ticket
	code, err := g.doJSON(ctx, http.MethodPatch, "/api/tickets/"+id+"/status", s,
		map[string]models.TicketStatus{"status": status}, &t)
	if err != nil {
		return nil, err
	}
	switch code {
	case http.StatusOK:
		return &t, nil
	case http.StatusBadRequest:
		return nil, models.ErrInvalidStatus
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, models.ErrUnauthorized
	case http.StatusNotFound:
		return nil, models.ErrNotFound
	default:
		return nil, fmt.Errorf("update status: unexpected status %d", code)
	}
}

// DeleteTicket implements Gateway.
func (g *RemoteGateway) DeleteTicket(ctx context.Context, s *models.Session, id string) error {
	code, err := g.doJSON(ctx, http.MethodDelete, "/api/tickets/"+id, s, nil, nil)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.ErrUnauthorized
	case http.StatusNotFound:
		return models.ErrNotFound
	default:
		return fmt.Errorf("delete ticket: unexpected status %d", code)
	}
}

// RequestPasswordReset implements Gateway. The backend responds 202
// whether or not the email exists; the token travels out of band.
func (g *RemoteGateway) RequestPasswordReset(ctx context.Context, email string) error {
	code, err := g.doJSON(ctx, http.MethodPost, "/api/auth/recover", nil,
		map[string]string{"email": email}, nil)
	if err != nil {
		return err
	}
	if code != http.StatusAccepted {
		return fmt.Errorf("recover: unexpected status %d", code)
	}
	return nil
}

// ResetPassword implements Gateway.
func (g *RemoteGateway) ResetPassword(ctx context.Context, token, newPassword string) error {
	code, err := g.doJSON(ctx, http.MethodPost, "/api/auth/reset", nil,
		map[string]string{"token": token, "password": newPassword}, nil)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return models.ErrNotFound
	default:
		return fmt.Errorf("reset: unexpected status %d", code)
	}
}

// wsSubscription wraps a feed connection.
type wsSubscription struct {
	conn *websocket.Conn
}

func (s *wsSubscription) Close() error { return s.conn.Close() }

// SubscribeTicketChanges implements Subscribable by dialing the backend's
// websocket feed. onChange fires for every received event; the reader
// goroutine exits when the connection drops or ctx is canceled.
func (g *RemoteGateway) SubscribeTicketChanges(ctx context.Context, onChange func()) (Subscription, error) {
	wsURL := g.baseURL + "/api/tickets/feed"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			onChange()
		}
	}()

	return &wsSubscription{conn: conn}, nil
}
