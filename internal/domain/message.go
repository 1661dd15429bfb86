package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a chat message relayed by the gateway. The gateway
// assigns the identifier and timestamp and broadcasts the record; durable
// storage is the external store's responsibility.
type Message struct {
	MessageID   uuid.UUID    `json:"message_id"`
	RoomID      string       `json:"room_id"`
	UserID      uuid.UUID    `json:"user_id"`
	Username    string       `json:"username"`
	Content     string       `json:"content"`
	Type        string       `json:"type"` // text, image, video, audio, file, system
	ThreadID    string       `json:"thread_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions"`
	IsEdited    bool         `json:"is_edited"`
	IsDeleted   bool         `json:"is_deleted"`
	Timestamp   time.Time    `json:"timestamp"`
	EditedAt    *time.Time   `json:"edited_at,omitempty"`
}

// Attachment is an opaque reference to uploaded content; the gateway relays
// it without interpreting or storing the bytes.
type Attachment struct {
	ID   string `json:"id"`
	Type string `json:"type"` // image, file, link, video, audio
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Reaction aggregates emoji reactions on a message.
type Reaction struct {
	Emoji string      `json:"emoji"`
	Users []uuid.UUID `json:"users"`
	Count int         `json:"count"`
}
