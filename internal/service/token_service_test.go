package service

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/eventpoll-server/internal/logger"
	servermocks "github.com/dtroode/eventpoll-server/internal/mocks"
	"github.com/dtroode/eventpoll-server/internal/model"
)

func hashed(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("GenerateAccessToken", userID).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", userID).Return("refresh", "jti-1", nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.JTI == "jti-1" && rt.UserID == userID && string(rt.TokenHash) == string(hashed("refresh")) &&
			rt.ExpiresAt.Sub(rt.IssuedAt) == refreshTTL && rt.RotatedFromJTI == nil
	})).Return(nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	pair, err := svc.Issue(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
	store.AssertExpectations(t)
}

func TestTokenService_Issue_ManagerError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("GenerateAccessToken", userID).Return("", assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	_, err := svc.Issue(ctx, userID)
	require.ErrorIs(t, err, assert.AnError)
}

func TestTokenService_Issue_StoreError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("GenerateAccessToken", userID).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", userID).Return("refresh", "jti", nil).Once()
	store.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	_, err := svc.Issue(ctx, userID)
	require.ErrorIs(t, err, assert.AnError)
}

func TestTokenService_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	jti := "jti-old"
	presented := "refresh-old"

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("ParseRefreshToken", presented).Return(userID, jti, nil).Once()
	store.On("GetByJTI", ctx, jti).Return(model.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		TokenHash: hashed(presented),
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil).Once()
	store.On("RevokeByJTI", ctx, jti).Return(nil).Once()
	manager.On("GenerateAccessToken", userID).Return("access-new", nil).Once()
	manager.On("GenerateRefreshToken", userID).Return("refresh-new", "jti-new", nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.JTI == "jti-new" && rt.RotatedFromJTI != nil && *rt.RotatedFromJTI == jti
	})).Return(nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	pair, err := svc.Refresh(ctx, presented)
	require.NoError(t, err)
	assert.Equal(t, "access-new", pair.AccessToken)
	assert.Equal(t, "refresh-new", pair.RefreshToken)
	store.AssertExpectations(t)
}

func TestTokenService_Refresh_Rejected(t *testing.T) {
	now := time.Now()
	presented := "refresh"

	tests := []struct {
		name        string
		stored      model.RefreshToken
		revokeChain bool
	}{
		{
			name:        "revoked",
			stored:      model.RefreshToken{TokenHash: hashed(presented), ExpiresAt: now.Add(time.Hour), RevokedAt: &now},
			revokeChain: true,
		},
		{
			name:   "expired",
			stored: model.RefreshToken{TokenHash: hashed(presented), ExpiresAt: now.Add(-time.Minute)},
		},
		{
			name:   "mismatch",
			stored: model.RefreshToken{TokenHash: hashed("other"), ExpiresAt: now.Add(time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()
			manager := &servermocks.TokenManager{}
			store := &servermocks.RefreshTokenStore{}

			tt.stored.JTI = "jti"
			tt.stored.UserID = userID
			manager.On("ParseRefreshToken", presented).Return(userID, "jti", nil).Once()
			store.On("GetByJTI", ctx, "jti").Return(tt.stored, nil).Once()
			if tt.revokeChain {
				store.On("RevokeAllByUser", ctx, userID).Return(nil).Once()
			}

			svc := NewTokenService(manager, store, logger.New(0))

			_, err := svc.Refresh(ctx, presented)
			require.ErrorIs(t, err, model.ErrUnauthenticated)
			store.AssertExpectations(t)
			store.AssertNotCalled(t, "RevokeByJTI", mock.Anything, mock.Anything)
		})
	}
}

func TestTokenService_Refresh_UnknownToken(t *testing.T) {
	ctx := context.Background()
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("ParseRefreshToken", "garbage").Return(uuid.Nil, "", assert.AnError).Once()
	manager.On("ParseRefreshToken", "unknown").Return(uuid.New(), "jti", nil).Once()
	store.On("GetByJTI", ctx, "jti").Return(model.RefreshToken{}, model.ErrNotFound).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	_, err := svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = svc.Refresh(ctx, "unknown")
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestTokenService_RevokeByToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	jti := "jti"
	presented := "refresh"
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("ParseRefreshToken", presented).Return(userID, jti, nil).Once()
	store.On("RevokeByJTI", ctx, jti).Return(nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	require.NoError(t, svc.RevokeByToken(ctx, presented))
}

func TestTokenService_RevokeByToken_InvalidToken(t *testing.T) {
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("ParseRefreshToken", "bad").Return(uuid.Nil, "", assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	require.ErrorIs(t, svc.RevokeByToken(context.Background(), "bad"), model.ErrUnauthenticated)
}

func TestTokenService_GetUserID(t *testing.T) {
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	u := uuid.New()
	manager.On("ParseAccessToken", "access").Return(u, nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	got, err := svc.GetUserID(context.Background(), "access")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	store.On("RevokeAllByUser", ctx, userID).Return(nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	require.NoError(t, svc.RevokeAllForUser(ctx, userID))
}

func TestTokenService_RevokeAllForUser_Error(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	store.On("RevokeAllByUser", ctx, userID).Return(assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	require.Error(t, svc.RevokeAllForUser(ctx, userID))
}
