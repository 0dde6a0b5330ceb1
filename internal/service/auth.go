// Package service provides the business logic for authentication and
// ticket management, delegating persistence to repository interfaces.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atikhonov/helpdesk/internal/models"
	"github.com/atikhonov/helpdesk/internal/token"
)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 6

// resetTokenTTL is how long a password-reset token stays valid.
const resetTokenTTL = 30 * time.Minute

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// Create inserts a new user with the given password hash. A taken
	// email yields models.ErrDuplicateEmail.
	Create(ctx context.Context, p *models.Profile, passwordHash string) error
	// GetByEmail returns the profile and password hash, or (nil, "", nil)
	// when the email is unknown.
	GetByEmail(ctx context.Context, email string) (*models.Profile, string, error)
	// GetByID returns the profile, or (nil, nil) when unknown.
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// UpdatePassword replaces the hash for the given email.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// ResetTokenStore holds short-lived password-reset tokens.
type ResetTokenStore interface {
	// Put stores token -> email for the given lifetime.
	Put(ctx context.Context, tok, email string, ttl time.Duration) error
	// Take consumes a token, returning its email or models.ErrNotFound.
	Take(ctx context.Context, tok string) (string, error)
}

// AuthService implements registration, login and password recovery.
type AuthService struct {
	users      UserRepository
	tokens     ResetTokenStore
	jwtSecret  string
	adminEmail string
}

// NewAuthService constructs an AuthService. adminEmail is the account the
// role-escalation rule applies to; empty disables it.
func NewAuthService(users UserRepository, tokens ResetTokenStore, jwtSecret, adminEmail string) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwtSecret: jwtSecret, adminEmail: adminEmail}
}

// Register creates a new account and returns the profile with its session
// token. Self-registration always stores the user role; the effective role
// on the returned session may still be admin via the escalation rule.
func (a *AuthService) Register(ctx context.Context, email, name, password string) (*models.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, "", models.NewValidationError("email", "must not be empty")
	}
	if name == "" {
		return nil, "", models.NewValidationError("name", "must not be empty")
	}
	if len(password) < MinPasswordLen {
		return nil, "", models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	p := &models.Profile{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  models.RoleUser,
	}
	if err := a.users.Create(ctx, p, string(hash)); err != nil {
		return nil, "", err
	}

	return a.establish(p)
}

// Login authenticates by email and password and returns the profile with a
// fresh session token. The profile's role is the effective role.
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, hash, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if p == nil {
		return nil, "", models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", models.ErrInvalidCredentials
	}
	return a.establish(p)
}

// establish applies the role-escalation rule and signs the session token.
// Session establishment is the only place the rule runs.
func (a *AuthService) establish(p *models.Profile) (*models.Profile, string, error) {
	p.Role = models.EffectiveRole(a.adminEmail, p.Email, p.Role)
	tok, err := token.Sign(a.jwtSecret, p.ID, p.Email, p.Role, token.DefaultTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return p, tok, nil
}

// RequestReset mints a reset token for the given email. An unknown email
// yields models.ErrUnknownUser; callers decide whether to reveal that.
func (a *AuthService) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, _, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", models.ErrUnknownUser
	}
	tok := uuid.NewString()
	if err := a.tokens.Put(ctx, tok, email, resetTokenTTL); err != nil {
		return "", err
	}
	return tok, nil
}

// ResetPassword consumes a reset token and stores the new password.
func (a *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if len(newPassword) < MinPasswordLen {
		return models.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	email, err := a.tokens.Take(ctx, tok)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.users.UpdatePassword(ctx, email, string(hash))
}
