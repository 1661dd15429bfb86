package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/database"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
)

// PresenceRepository maintains user online/offline markers in Redis. The
// gateway calls it best-effort on connect and disconnect, outside the
// broadcast path.
type PresenceRepository struct {
	client *database.RedisClient
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(client *database.RedisClient) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// SetUserOnline marks user as online with auto-expiry
func (r *PresenceRepository) SetUserOnline(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("presence:%s", userID)

	if err := r.client.SafeSet(ctx, key, "online", constants.PresenceTTL).Err(); err != nil {
		return fmt.Errorf("failed to set user online: %w", err)
	}

	if err := r.client.SafeSAdd(ctx, "presence:online", userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to add to online set: %w", err)
	}

	return nil
}

// SetUserOffline marks user as offline
func (r *PresenceRepository) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("presence:%s", userID)

	if err := r.client.SafeDel(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}

	if err := r.client.SafeSRem(ctx, "presence:online", userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove from online set: %w", err)
	}

	return nil
}

// RefreshPresence keeps user online (heartbeat)
func (r *PresenceRepository) RefreshPresence(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("presence:%s", userID)

	if err := r.client.SafeExpire(ctx, key, constants.PresenceTTL).Err(); err != nil {
		return fmt.Errorf("failed to refresh presence: %w", err)
	}

	return nil
}

// IsUserOnline checks if user is currently online
func (r *PresenceRepository) IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("presence:%s", userID)

	exists, err := r.client.SafeExists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}

	return exists > 0, nil
}

// GetOnlineUsers retrieves the list of online user IDs
func (r *PresenceRepository) GetOnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := r.client.SafeSMembers(ctx, "presence:online").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get online users: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(ids))
	for _, idStr := range ids {
		userID, err := uuid.Parse(idStr)
		if err != nil {
			continue // Skip invalid UUIDs
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, nil
}
