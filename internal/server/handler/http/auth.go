// Package http provides the HTTP handlers and routing for the help-desk
// API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/middleware"
	"github.com/atikhonov/helpdesk/internal/models"
)

// AuthService defines the authentication operations required by the HTTP
// handlers.
type AuthService interface {
	// Register creates an account and returns the profile with a session
	// token.
	Register(ctx context.Context, email, name, password string) (*models.Profile, string, error)
	// Login authenticates and returns the profile with a session token.
	Login(ctx context.Context, email, password string) (*models.Profile, string, error)
	// RequestReset mints a password-reset token for the email.
	RequestReset(ctx context.Context, email string) (string, error)
	// ResetPassword consumes a reset token and stores the new password.
	ResetPassword(ctx context.Context, tok, newPassword string) error
}

// AuthHandler handles registration, login, logout and password recovery.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log records recovery tokens and unexpected failures.
	Log *zap.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// sessionResponse is the payload returned on successful register/login.
type sessionResponse struct {
	Token string          `json:"token"`
	User  *models.Profile `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAuthError maps the auth error taxonomy to HTTP statuses.
func writeAuthError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrDuplicateEmail):
		http.Error(w, "email already registered", http.StatusConflict)
	case errors.Is(err, models.ErrInvalidCredentials):
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func setSessionCookie(w http.ResponseWriter, tok string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	p, tok, err := h.AuthService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	setSessionCookie(w, tok, 0)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: tok, User: p})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	p, tok, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	setSessionCookie(w, tok, 0)
	writeJSON(w, http.StatusOK, sessionResponse{Token: tok, User: p})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout
// only clears the cookie; the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Recover handles POST /api/auth/recover. The response is 202 whether or
// not the account exists so the endpoint cannot be used to enumerate
// emails; the token itself is delivered out of band (it is logged for the
// operator).
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	tok, err := h.AuthService.RequestReset(r.Context(), req.Email)
	switch {
	case err == nil:
		h.Log.Info("password reset token issued",
			zap.String("email", req.Email), zap.String("token", tok))
	case errors.Is(err, models.ErrUnknownUser):
		h.Log.Info("password reset requested for unknown email",
			zap.String("email", req.Email))
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

// Reset handles POST /api/auth/reset.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := h.AuthService.ResetPassword(r.Context(), req.Token, req.Password)
	var verr *models.ValidationError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnknownUser):
		http.Error(w, "invalid or expired token", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
