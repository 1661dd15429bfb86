package domain

import (
	"time"

	"github.com/google/uuid"
)

// Room types
const (
	RoomTypeChannel = "channel"
	RoomTypeDirect  = "direct"
	RoomTypePrivate = "private"
	RoomTypeGroup   = "group"
)

// Room represents a conversation scope. Live membership is tracked by the
// gateway hub; this record is the durable shape held by the external store.
type Room struct {
	RoomID       string    `json:"room_id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`    // channel, direct, private, group
	Privacy      string    `json:"privacy"` // public, private
	PasswordHash string    `json:"-"`
	OwnerID      uuid.UUID `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
