package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	s   *Store
	now func() time.Time
}

func NewRefreshTokenRepository(s *Store) *RefreshTokenRepository {
	return &RefreshTokenRepository{s: s, now: time.Now}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.refreshTokens[token.JTI]; ok {
		return fmt.Errorf("refresh token %s already exists: %w", token.JTI, model.ErrConflict)
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.s.st.refreshTokens[token.JTI] = token
	return nil
}

func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	defer r.s.lock(ctx)()

	rt, ok := r.s.st.refreshTokens[jti]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return rt, nil
}

func (r *RefreshTokenRepository) RevokeByJTI(ctx context.Context, jti string) error {
	defer r.s.lock(ctx)()

	rt, ok := r.s.st.refreshTokens[jti]
	if !ok || rt.RevokedAt != nil {
		return nil
	}
	now := r.now().UTC()
	rt.RevokedAt = &now
	r.s.st.refreshTokens[jti] = rt
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	defer r.s.lock(ctx)()

	now := r.now().UTC()
	for jti, rt := range r.s.st.refreshTokens {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			r.s.st.refreshTokens[jti] = rt
		}
	}
	return nil
}
