// Package models defines the core data structures for sessions, tickets
// and user profiles shared by the client and the server.
package models

import "time"

// Role identifies the permission level of an authenticated user.
type Role string

const (
	// RoleAdmin may view every ticket and change ticket statuses.
	RoleAdmin Role = "admin"
	// RoleUser may submit tickets and view only their own.
	RoleUser Role = "user"
)

// Session is the authenticated-identity record held by the client after
// login. Its trust boundary is advisory: the backend verifies identity
// independently on every privileged call.
type Session struct {
	// ID is the unique identifier of the authenticated user.
	ID string `json:"id"`
	// Email is the login email of the user.
	Email string `json:"email"`
	// Name is the display name of the user.
	Name string `json:"name"`
	// Role is the effective role for this session.
	Role Role `json:"role"`
	// Token is the bearer credential for the remote backend. Empty for
	// the local backend.
	Token string `json:"token,omitempty"`
}

// IsAdmin reports whether the session carries the admin role.
// A nil session is never admin.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// TicketStatus is the lifecycle state of a ticket. Exactly three values
// exist; there are no custom statuses.
type TicketStatus string

const (
	// StatusOpen is the initial status of every new ticket.
	StatusOpen TicketStatus = "open"
	// StatusInProgress marks a ticket being worked on.
	StatusInProgress TicketStatus = "in_progress"
	// StatusResolved marks a completed ticket.
	StatusResolved TicketStatus = "resolved"
)

// ValidStatus reports whether s is one of the three known statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Ticket is a single support request.
type Ticket struct {
	// ID is the backend-assigned opaque identifier.
	ID string `json:"id"`
	// Category is the problem category chosen at submission.
	Category string `json:"category"`
	// Description is the free-text problem description.
	Description string `json:"description"`
	// Department is the department the ticket is filed against.
	Department string `json:"department"`
	// Status is the current lifecycle state.
	Status TicketStatus `json:"status"`
	// CreatedAt is the backend-assigned creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// CreatedBy references the submitting user. Empty for anonymous
	// submissions.
	CreatedBy string `json:"createdBy,omitempty"`
	// ContactName carries the submitter's name for anonymous tickets.
	ContactName string `json:"contactName,omitempty"`
	// ContactDept carries the submitter's department for anonymous tickets.
	ContactDept string `json:"contactDept,omitempty"`
	// Attachment is an optional file name or URL. The binary itself is
	// never uploaded through this system.
	Attachment string `json:"attachment,omitempty"`
	// Deleted marks soft-deleted tickets. No UI control sets it.
	Deleted bool `json:"deleted,omitempty"`
}

// TicketInput carries the submission form fields for a new ticket.
type TicketInput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Department  string `json:"department"`
	// ContactName and ContactDept identify anonymous submitters.
	ContactName string `json:"contactName,omitempty"`
	ContactDept string `json:"contactDept,omitempty"`
	Attachment  string `json:"attachment,omitempty"`
}

// Profile is a stored user account as seen by the client.
type Profile struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Email is the unique login email.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
	// Role is the stored role of the user.
	Role Role `json:"role"`
	// CreatedAt is the account creation time.
	CreatedAt time.Time `json:"createdAt"`
}
