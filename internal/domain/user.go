package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a chat user as seen by the gateway. The authoritative
// record lives in the external store; the gateway only reads it.
type User struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Status      string    `json:"status"` // online, offline, away
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Identity is the verified (userId, username) pair a connection carries for
// its whole lifetime.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}
