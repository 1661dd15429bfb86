package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/jwt"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

type stubRevocation struct {
	revoked bool
	err     error
}

func (s *stubRevocation) IsTokenRevoked(context.Context, string) (bool, error) {
	return s.revoked, s.err
}

func TestJWTVerifier_Verify(t *testing.T) {
	manager := jwt.NewManager(testSecret, 15*time.Minute)
	userID := uuid.New()
	token, err := manager.GenerateToken(userID, "alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		revocation RevocationChecker
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "valid token",
			credential: token,
		},
		{
			name:     "missing credential",
			wantCode: apperrors.ErrCodeUnauthenticated,
		},
		{
			name:       "garbage token",
			credential: "not.a.token",
			wantCode:   apperrors.ErrCodeInvalidToken,
		},
		{
			name:       "revoked token",
			credential: token,
			revocation: &stubRevocation{revoked: true},
			wantCode:   apperrors.ErrCodeTokenRevoked,
		},
		{
			name:       "revocation check failure fails open",
			credential: token,
			revocation: &stubRevocation{err: errors.New("redis down")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewJWTVerifier(manager, tt.revocation)
			identity, err := verifier.Verify(context.Background(), tt.credential)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.GetAppError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, identity.UserID)
			assert.Equal(t, "alice", identity.Username)
		})
	}
}

func TestJWTVerifier_RejectsWrongSecret(t *testing.T) {
	userID := uuid.New()
	token, err := jwt.NewManager("another-secret-key-at-least-32-chars", 15*time.Minute).GenerateToken(userID, "alice")
	require.NoError(t, err)

	verifier := NewJWTVerifier(jwt.NewManager(testSecret, 15*time.Minute), nil)
	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetAppError(err).Code)
}
