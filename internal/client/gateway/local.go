package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atikhonov/helpdesk/internal/models"
)

// localUser is a stored account in the local data file.
type localUser struct {
	models.Profile
	PasswordHash string `json:"passwordHash"`
}

// localData is the on-disk shape of the local backend.
type localData struct {
	Users   []localUser     `json:"users"`
	Tickets []models.Ticket `json:"tickets"`
}

// resetEntry is an in-memory password-reset token. The local backend does
// not persist them; a restart invalidates outstanding tokens.
type resetEntry struct {
	email   string
	expires time.Time
}

// LocalGateway is the no-network backend variant: users and tickets live
// in a JSON file next to the client. It exists for single-machine use and
// as the fallback when no remote backend is configured.
type LocalGateway struct {
	mu         sync.Mutex
	path       string
	slot       *SessionSlot
	adminEmail string
	data       localData
	resets     map[string]resetEntry
}

// NewLocalGateway loads (or initializes) the data file at dataPath and
// uses sessionPath as the durable session slot.
func NewLocalGateway(dataPath, sessionPath, adminEmail string) (*LocalGateway, error) {
	g := &LocalGateway{
		path:       dataPath,
		slot:       NewSessionSlot(sessionPath),
		adminEmail: adminEmail,
		resets:     make(map[string]resetEntry),
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *LocalGateway) load() error {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read data file: %w", err)
	}
	if err := json.Unmarshal(data, &g.data); err != nil {
		return fmt.Errorf("parse data file: %w", err)
	}
	return nil
}

// save must be called with the mutex held.
func (g *LocalGateway) save() error {
	f, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(&g.data)
}

func (g *LocalGateway) findUser(email string) *localUser {
	for i := range g.data.Users {
		if g.data.Users[i].Email == email {
			return &g.data.Users[i]
		}
	}
	return nil
}

func (g *LocalGateway) sessionFor(u *localUser) (*models.Session, error) {
	sess := &models.Session{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  models.EffectiveRole(g.adminEmail, u.Email, u.Role),
	}
	if err := g.slot.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// Authenticate implements Gateway.
func (g *LocalGateway) Authenticate(_ context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	g.mu.Lock()
	defer g.mu.Unlock()

	u := g.findUser(email)
	if u == nil {
		return nil, models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	return g.sessionFor(u)
}

// Register implements Gateway. Email uniqueness is checked before insert;
// this variant has no backend to delegate that to.
func (g *LocalGateway) Register(_ context.Context, email, password, fullName string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" {
		return nil, models.NewValidationError("email", "must not be empty")
	}
	if fullName == "" {
		return nil, models.NewValidationError("name", "must not be empty")
	}
	if len(password) < 6 {
		return nil, models.NewValidationError("password", "must be at least 6 characters")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.findUser(email) != nil {
		return nil, models.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := localUser{
		Profile: models.Profile{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      fullName,
			Role:      models.RoleUser,
			CreatedAt: time.Now(),
		},
		PasswordHash: string(hash),
	}
	g.data.Users = append(g.data.Users, u)
	if err := g.save(); err != nil {
		return nil, err
	}
	return g.sessionFor(&g.data.Users[len(g.data.Users)-1])
}

// EndSession implements Gateway.
func (g *LocalGateway) EndSession(context.Context, *models.Session) error {
	return g.slot.Clear()
}

// RestoreSession implements Gateway. The role-escalation rule is
// re-applied so a stale slot cannot pin an outdated role for the
// designated admin account.
func (g *LocalGateway) RestoreSession() *models.Session {
	sess := g.slot.Load()
	if sess == nil {
		return nil
	}
	sess.Role = models.EffectiveRole(g.adminEmail, sess.Email, sess.Role)
	return sess
}

// CreateTicket implements Gateway.
func (g *LocalGateway) CreateTicket(_ context.Context, s *models.Session, in models.TicketInput) (*models.Ticket, error) {
	if in.Category == "" {
		return nil, models.NewValidationError("category", "must not be empty")
	}
	if in.Description == "" {
		return nil, models.NewValidationError("description", "must not be empty")
	}

	t := models.Ticket{
		ID:          uuid.NewString(),
		Category:    in.Category,
		Description: in.Description,
		Department:  in.Department,
		Status:      models.StatusOpen,
		CreatedAt:   time.Now(),
		Attachment:  in.Attachment,
	}
	if s != nil {
		t.CreatedBy = s.ID
	} else {
		t.ContactName = in.ContactName
		t.ContactDept = in.ContactDept
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.data.Tickets = append(g.data.Tickets, t)
	if err := g.save(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTickets implements Gateway.
func (g *LocalGateway) ListTickets(_ context.Context, s *models.Session) ([]models.Ticket, error) {
	if s == nil {
		return []models.Ticket{}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Ticket, 0, len(g.data.Tickets))
	for _, t := range g.data.Tickets {
		if t.Deleted {
			continue
		}
		if s.Role != models.RoleAdmin && t.CreatedBy != s.ID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// UpdateTicketStatus implements Gateway.
func (g *LocalGateway) UpdateTicketStatus(_ context.Context, s *models.Session, id string, status models.TicketStatus) (*models.Ticket, error) {
	if !s.IsAdmin() {
		return nil, models.ErrUnauthorized
	}
	if !models.ValidStatus(status) {
		return nil, models.ErrInvalidStatus
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.data.Tickets {
		if g.data.Tickets[i].ID == id && !g.data.Tickets[i].Deleted {
			g.data.Tickets[i].Status = status
			if err := g.save(); err != nil {
				return nil, err
			}
			t := g.data.Tickets[i]
			return &t, nil
		}
	}
	return nil, models.ErrNotFound
}

// DeleteTicket implements Gateway.
func (g *LocalGateway) DeleteTicket(_ context.Context, s *models.Session, id string) error {
	if !s.IsAdmin() {
		return models.ErrUnauthorized
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.data.Tickets {
		if g.data.Tickets[i].ID == id && !g.data.Tickets[i].Deleted {
			g.data.Tickets[i].Deleted = true
			return g.save()
		}
	}
	return models.ErrNotFound
}

// RequestPasswordReset implements Gateway. The token is printed by the
// caller; there is no mail delivery in the local variant.
func (g *LocalGateway) RequestPasswordReset(_ context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.findUser(email) == nil {
		return models.ErrUnknownUser
	}
	g.resets[uuid.NewString()] = resetEntry{email: email, expires: time.Now().Add(30 * time.Minute)}
	return nil
}

// PendingResetToken returns the newest outstanding token for email. The
// local variant has no side channel to deliver tokens through, so the
// client surfaces it directly.
func (g *LocalGateway) PendingResetToken(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	g.mu.Lock()
	defer g.mu.Unlock()

	var newest string
	var newestExp time.Time
	for tok, e := range g.resets {
		if e.email == email && e.expires.After(newestExp) {
			newest, newestExp = tok, e.expires
		}
	}
	return newest
}

// ResetPassword implements Gateway.
func (g *LocalGateway) ResetPassword(_ context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return models.NewValidationError("password", "must be at least 6 characters")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.resets[token]
	if !ok || time.Now().After(e.expires) {
		return models.ErrNotFound
	}
	delete(g.resets, token)

	u := g.findUser(e.email)
	if u == nil {
		return models.ErrUnknownUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return g.save()
}
