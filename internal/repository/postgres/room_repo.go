package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
)

// RoomRepository handles room data operations in the relational store
type RoomRepository struct {
	pool *pgxpool.Pool
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// CreateRoom inserts a new room
func (r *RoomRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (room_id, name, type, privacy, password_hash, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		room.RoomID,
		room.Name,
		room.Type,
		room.Privacy,
		room.PasswordHash,
		room.OwnerID,
	).Scan(&room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// FindRoom retrieves a room by ID
func (r *RoomRepository) FindRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	query := `
		SELECT room_id, name, type, privacy, password_hash, owner_id, created_at, updated_at
		FROM rooms
		WHERE room_id = $1
	`

	room := &domain.Room{}
	err := r.pool.QueryRow(ctx, query, roomID).Scan(
		&room.RoomID,
		&room.Name,
		&room.Type,
		&room.Privacy,
		&room.PasswordHash,
		&room.OwnerID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// UpdateRoom updates the mutable fields of a room
func (r *RoomRepository) UpdateRoom(ctx context.Context, room *domain.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, type = $3, privacy = $4, password_hash = $5, updated_at = now()
		WHERE room_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		room.RoomID,
		room.Name,
		room.Type,
		room.Privacy,
		room.PasswordHash,
	)

	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
