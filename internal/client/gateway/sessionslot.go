package gateway

import (
	"encoding/json"
	"os"

	"github.com/atikhonov/helpdesk/internal/models"
)

// SessionSlot is the durable client-side slot the current session is
// serialized into, so a restart can restore it without re-authenticating.
type SessionSlot struct {
	path string
}

// NewSessionSlot creates a slot backed by the given file path.
func NewSessionSlot(path string) *SessionSlot {
	return &SessionSlot{path: path}
}

// Save writes the session to the slot file.
func (s *SessionSlot) Save(sess *models.Session) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(sess)
}

// Load reads the stored session. Best-effort: a missing or unreadable
// slot returns nil.
func (s *SessionSlot) Load() *models.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	if sess.ID == "" {
		return nil
	}
	return &sess
}

// Clear removes the slot file. Clearing an absent slot is not an error.
func (s *SessionSlot) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
