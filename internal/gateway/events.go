package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
)

// Inbound command names
const (
	CmdJoinRoom      = "join-room"
	CmdLeaveRoom     = "leave-room"
	CmdTyping        = "typing"
	CmdSendMessage   = "send-message"
	CmdEditMessage   = "edit-message"
	CmdDeleteMessage = "delete-message"
	CmdAddReaction   = "add-reaction"
	CmdCallUser      = "call-user"
	CmdAnswerCall    = "answer-call"
	CmdIceCandidate  = "ice-candidate"
	CmdEndCall       = "end-call"
)

// Outbound event names
const (
	EventJoinedRoom     = "joined-room"
	EventLeftRoom       = "left-room"
	EventMemberJoined   = "member-joined"
	EventMemberLeft     = "member-left"
	EventTypingUpdate   = "typing-update"
	EventNewMessage     = "new-message"
	EventThreadMessage  = "thread-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"
	EventReactionAdded  = "reaction-added"
	EventCallMade       = "call-made"
	EventCallAnswered   = "call-answered"
	EventIceCandidate   = "ice-candidate"
	EventCallEnded      = "call-ended"
	EventError          = "error"
)

// Envelope is the wire frame for every command and event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type SendMessagePayload struct {
	RoomID      string              `json:"roomId"`
	Content     string              `json:"content"`
	Type        string              `json:"type,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	ThreadID    string              `json:"threadId,omitempty"`
}

type EditMessagePayload struct {
	MessageID  uuid.UUID `json:"messageId"`
	RoomID     string    `json:"roomId"`
	NewContent string    `json:"newContent"`
}

type DeleteMessagePayload struct {
	MessageID uuid.UUID `json:"messageId"`
	RoomID    string    `json:"roomId"`
}

type AddReactionPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	Emoji     string    `json:"emoji"`
	RoomID    string    `json:"roomId"`
}

type CallUserPayload struct {
	UserToCall uuid.UUID       `json:"userToCall"`
	SignalData json.RawMessage `json:"signalData"`
	Type       string          `json:"type,omitempty"`
}

type AnswerCallPayload struct {
	To         uuid.UUID       `json:"to"`
	SignalData json.RawMessage `json:"signalData"`
}

type IceCandidatePayload struct {
	To        uuid.UUID       `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

type EndCallPayload struct {
	To uuid.UUID `json:"to"`
}

// Outbound payloads

type RoomAckPayload struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type MembershipPayload struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingUser struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type TypingUpdatePayload struct {
	RoomID string       `json:"roomId"`
	Users  []TypingUser `json:"users"`
}

type NewMessagePayload struct {
	Message *domain.Message `json:"message"`
	RoomID  string          `json:"roomId"`
}

type ThreadMessagePayload struct {
	Message  *domain.Message `json:"message"`
	ThreadID string          `json:"threadId"`
}

type MessageEditedPayload struct {
	MessageID  uuid.UUID `json:"messageId"`
	NewContent string    `json:"newContent"`
	EditedBy   uuid.UUID `json:"editedBy"`
	EditedAt   time.Time `json:"editedAt"`
	RoomID     string    `json:"roomId"`
}

type MessageDeletedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	DeletedBy uuid.UUID `json:"deletedBy"`
	DeletedAt time.Time `json:"deletedAt"`
	RoomID    string    `json:"roomId"`
}

type ReactionAddedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	Emoji     string    `json:"emoji"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	RoomID    string    `json:"roomId"`
}

type CallMadePayload struct {
	Signal json.RawMessage `json:"signal"`
	From   uuid.UUID       `json:"from"`
	Name   string          `json:"name"`
}

type CallAnsweredPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   uuid.UUID       `json:"from"`
}

type IceCandidateEventPayload struct {
	Candidate json.RawMessage `json:"candidate"`
	From      uuid.UUID       `json:"from"`
}

type CallEndedPayload struct {
	From uuid.UUID `json:"from"`
}

type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
