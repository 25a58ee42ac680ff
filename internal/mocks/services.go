package mocks

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/eventpoll-server/internal/model"
)

type TokenService struct {
	mock.Mock
}

func (m *TokenService) GetUserID(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type AuthService struct {
	mock.Mock
}

func (m *AuthService) Signup(ctx context.Context, params model.SignupParams) (model.TokenPair, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, password string) (model.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

type EventService struct {
	mock.Mock
}

func (m *EventService) CreateEvent(ctx context.Context, params model.CreateEventParams) (model.EventView, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) InviteToEvent(ctx context.Context, senderID, eventID, inviteeID uuid.UUID) (model.EventView, error) {
	args := m.Called(ctx, senderID, eventID, inviteeID)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) InviteByEmail(ctx context.Context, senderID, eventID uuid.UUID, email string) (model.EventView, error) {
	args := m.Called(ctx, senderID, eventID, email)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) DeclineEvent(ctx context.Context, eventID, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, eventID, userID)
	return args.String(0), args.Error(1)
}

func (m *EventService) ProposeTimeslot(ctx context.Context, eventID, userID uuid.UUID, start, end time.Time) (model.EventView, error) {
	args := m.Called(ctx, eventID, userID, start, end)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) Vote(ctx context.Context, userID, eventID, timeslotID uuid.UUID, remove bool) (model.EventView, error) {
	args := m.Called(ctx, userID, eventID, timeslotID, remove)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) GetVotes(ctx context.Context, userID, eventID uuid.UUID, timeslotID *uuid.UUID) ([]model.TimeslotView, error) {
	args := m.Called(ctx, userID, eventID, timeslotID)
	views, _ := args.Get(0).([]model.TimeslotView)
	return views, args.Error(1)
}

func (m *EventService) FinalizeEvent(ctx context.Context, userID, eventID uuid.UUID, force bool) (model.EventView, error) {
	args := m.Called(ctx, userID, eventID, force)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) EventStatus(ctx context.Context, eventID uuid.UUID) (model.EventStatus, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(model.EventStatus), args.Error(1)
}

func (m *EventService) GetEvents(ctx context.Context, userID uuid.UUID) ([]model.EventView, error) {
	args := m.Called(ctx, userID)
	views, _ := args.Get(0).([]model.EventView)
	return views, args.Error(1)
}

func (m *EventService) GetEvent(ctx context.Context, userID, eventID uuid.UUID) (model.EventView, error) {
	args := m.Called(ctx, userID, eventID)
	return args.Get(0).(model.EventView), args.Error(1)
}

func (m *EventService) GetCalendar(ctx context.Context, userID, eventID uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, userID, eventID)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type SecurityLayer struct {
	mock.Mock
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

var _ model.SecurityLayer = (*SecurityLayer)(nil)
