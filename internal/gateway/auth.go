package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/database"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/jwt"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/logger"
)

// IdentityVerifier turns a connection credential into a verified
// identity. Verification happens once, before the upgrade completes.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Identity, error)
}

// RevocationChecker reports whether an otherwise-valid token has been
// revoked since issuance.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// JWTVerifier validates HS256 tokens and optionally consults a
// revocation list. Revocation lookups fail open: an unreachable list
// never locks valid tokens out.
type JWTVerifier struct {
	manager    *jwt.Manager
	revocation RevocationChecker
}

func NewJWTVerifier(manager *jwt.Manager, revocation RevocationChecker) *JWTVerifier {
	return &JWTVerifier{manager: manager, revocation: revocation}
}

func (v *JWTVerifier) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, errors.UnauthenticatedError("Missing credential")
	}

	claims, err := v.manager.ValidateToken(credential)
	if err != nil {
		return domain.Identity{}, errors.InvalidTokenError("Invalid or expired token")
	}

	if v.revocation != nil {
		revoked, err := v.revocation.IsTokenRevoked(ctx, credential)
		if err != nil {
			logger.Warn("revocation check failed, allowing token", zap.Error(err))
		} else if revoked {
			return domain.Identity{}, errors.TokenRevokedError()
		}
	}

	return domain.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// RedisRevocationChecker looks tokens up in the Redis blacklist written
// at logout, keyed by the token's JTI.
type RedisRevocationChecker struct {
	client *database.RedisClient
}

func NewRedisRevocationChecker(client *database.RedisClient) *RedisRevocationChecker {
	return &RedisRevocationChecker{client: client}
}

func (r *RedisRevocationChecker) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	claims, err := jwt.ExtractClaims(token)
	if err != nil {
		return false, fmt.Errorf("failed to extract claims: %w", err)
	}
	if claims.ID == "" {
		return false, nil
	}

	exists, err := r.client.SafeExists(ctx, fmt.Sprintf("blacklist:%s", claims.ID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}
