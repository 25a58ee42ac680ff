package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/eventpoll-server/internal/apierrors"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
)

// AuthService defines user registration, login and session operations.
type AuthService interface {
	Signup(ctx context.Context, params model.SignupParams) (model.TokenPair, error)
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService AuthService
	logger      *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, logger *logger.Logger) *Auth {
	return &Auth{
		authService: authService,
		logger:      logger,
	}
}

// Signup registers a user and returns a token pair.
func (h *Auth) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("email and password are required"))
		return
	}
	h.logger.Debug("Auth handler: processing signup request",
		"email", req.Email)

	tokens, err := h.authService.Signup(c.Request.Context(), model.SignupParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Signup successful", tokenResponse(tokens))
}

// Login exchanges credentials for a token pair.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("email and password are required"))
		return
	}
	h.logger.Debug("Auth handler: processing login request",
		"email", req.Email)

	tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", tokenResponse(tokens))
}

// Refresh exchanges a refresh token for a new pair.
func (h *Auth) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("refresh token is required"))
		return
	}
	h.logger.Debug("Auth handler: processing token refresh request")

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Token refreshed", tokenResponse(tokens))
}

// Logout revokes the presented refresh token.
func (h *Auth) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("refresh token is required"))
		return
	}
	h.logger.Debug("Auth handler: processing logout request")

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Logout successful", nil)
}
