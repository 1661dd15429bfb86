package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
)

// UserRepository handles user data operations in the relational store
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, username, display_name, avatar_url, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.UserID,
		user.Username,
		user.DisplayName,
		user.AvatarURL,
		user.Status,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindUser retrieves a user by ID
func (r *UserRepository) FindUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT user_id, username, display_name, avatar_url, status, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	user := &domain.User{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateUser updates the mutable fields of a user
func (r *UserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, display_name = $3, avatar_url = $4, status = $5, updated_at = now()
		WHERE user_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.UserID,
		user.Username,
		user.DisplayName,
		user.AvatarURL,
		user.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
