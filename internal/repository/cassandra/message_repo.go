package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/database"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
)

// MessageRepository handles message storage in Cassandra, partitioned by room
type MessageRepository struct {
	db *database.CassandraDB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *database.CassandraDB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage inserts a new message
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if msg.MessageID == uuid.Nil {
		msg.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			room_id, message_id, user_id, username, content,
			message_type, thread_id, is_edited, is_deleted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.QueryWithContext(ctx, query,
		msg.RoomID,
		msg.MessageID,
		msg.UserID,
		msg.Username,
		msg.Content,
		msg.Type,
		msg.ThreadID,
		msg.IsEdited,
		msg.IsDeleted,
		msg.Timestamp,
	).Exec()

	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// FindMessage retrieves a specific message
func (r *MessageRepository) FindMessage(ctx context.Context, roomID string, messageID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT room_id, message_id, user_id, username, content,
		       message_type, thread_id, is_edited, is_deleted, created_at
		FROM messages
		WHERE room_id = ? AND message_id = ?
		LIMIT 1
	`

	msg := &domain.Message{}
	err := r.db.QueryWithContext(ctx, query, roomID, messageID).Scan(
		&msg.RoomID,
		&msg.MessageID,
		&msg.UserID,
		&msg.Username,
		&msg.Content,
		&msg.Type,
		&msg.ThreadID,
		&msg.IsEdited,
		&msg.IsDeleted,
		&msg.Timestamp,
	)

	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// UpdateMessage overwrites the mutable columns of a message
func (r *MessageRepository) UpdateMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		UPDATE messages
		SET content = ?, is_edited = ?, is_deleted = ?, edited_at = ?
		WHERE room_id = ? AND message_id = ?
	`

	err := r.db.ExecWithContext(ctx, query,
		msg.Content,
		msg.IsEdited,
		msg.IsDeleted,
		msg.EditedAt,
		msg.RoomID,
		msg.MessageID,
	)

	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	return nil
}

// DeleteMessage marks a message deleted without removing the row
func (r *MessageRepository) DeleteMessage(ctx context.Context, roomID string, messageID uuid.UUID) error {
	query := `
		UPDATE messages
		SET is_deleted = true
		WHERE room_id = ? AND message_id = ?
	`

	if err := r.db.ExecWithContext(ctx, query, roomID, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
