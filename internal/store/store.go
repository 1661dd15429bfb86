// Package store defines the external persistence capability the gateway
// calls through but does not implement. The gateway tolerates a nil Store
// and keeps relaying; durable writes are always dispatched outside the
// broadcast path.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// MessageStore persists message lifecycle events.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	FindMessage(ctx context.Context, roomID string, messageID uuid.UUID) (*domain.Message, error)
	UpdateMessage(ctx context.Context, msg *domain.Message) error
	DeleteMessage(ctx context.Context, roomID string, messageID uuid.UUID) error
}

// RoomStore persists room records. The gateway only reads rooms, to honor
// private-room passwords on join.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *domain.Room) error
	FindRoom(ctx context.Context, roomID string) (*domain.Room, error)
	UpdateRoom(ctx context.Context, room *domain.Room) error
}

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// Store is the composite capability handed to the gateway.
type Store struct {
	Messages MessageStore
	Rooms    RoomStore
	Users    UserStore
}
