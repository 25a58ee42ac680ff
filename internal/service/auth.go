package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/apierrors"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
)

const minPasswordLength = 8

// Auth registers users and exchanges credentials for tokens.
type Auth struct {
	userStore    model.UserStore
	hasher       model.PasswordHasher
	tokenService *TokenService
	logger       *logger.Logger
	now          func() time.Time
}

func NewAuth(
	userStore model.UserStore,
	hasher model.PasswordHasher,
	tokenService *TokenService,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:    userStore,
		hasher:       hasher,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}

func (a *Auth) Signup(ctx context.Context, params model.SignupParams) (model.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	a.logger.Debug("Auth service: starting user registration",
		"email", email)

	if _, err := mail.ParseAddress(email); err != nil {
		return model.TokenPair{}, apierrors.NewErrInvalidArgument("invalid email address")
	}
	if len(params.Password) < minPasswordLength {
		return model.TokenPair{}, apierrors.NewErrInvalidArgument(
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	_, err := a.userStore.GetByEmail(ctx, email)
	if err == nil {
		a.logger.Info("Auth service: user already exists",
			"email", email)
		return model.TokenPair{}, apierrors.NewErrEmailIsTaken(email)
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now().UTC()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.TokenPair{}, apierrors.NewErrEmailIsTaken(email)
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", user.ID,
			"error", err.Error())
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: user registered successfully",
		"user_id", user.ID,
		"email", email)

	return tokens, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a.logger.Debug("Auth service: starting user login",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Warn("Auth service: login for unknown email",
				"email", email)
			return model.TokenPair{}, apierrors.NewErrInvalidCredentials()
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.hasher.Matches(password, user.PasswordHash) {
		a.logger.Warn("Auth service: password mismatch",
			"user_id", user.ID)
		return model.TokenPair{}, apierrors.NewErrInvalidCredentials()
	}

	tokens, err := a.tokenService.Issue(ctx, user.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", user.ID,
			"error", err.Error())
		return model.TokenPair{}, err
	}

	a.logger.Info("Auth service: user logged in successfully",
		"user_id", user.ID)

	return tokens, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return a.tokenService.Refresh(ctx, refreshToken)
}

func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	if err := a.tokenService.RevokeByToken(ctx, refreshToken); err != nil {
		return err
	}
	a.logger.Info("Auth service: refresh token revoked")
	return nil
}
