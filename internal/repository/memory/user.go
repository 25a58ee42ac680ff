package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	defer r.s.lock(ctx)()

	email = strings.ToLower(email)
	for _, u := range r.s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.st.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	defer r.s.lock(ctx)()

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.st.users[id]; ok {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return slices.CompactFunc(users, func(a, b model.User) bool { return a.ID == b.ID }), nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	defer r.s.lock(ctx)()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.st.users {
		if u.Email == user.Email {
			return model.User{}, fmt.Errorf("email %s already registered: %w", user.Email, model.ErrConflict)
		}
	}
	if _, ok := r.s.st.users[user.ID]; ok {
		return model.User{}, fmt.Errorf("user %s already exists: %w", user.ID, model.ErrConflict)
	}

	r.s.st.users[user.ID] = user
	return user, nil
}
