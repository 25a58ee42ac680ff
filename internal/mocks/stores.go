package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/eventpoll-server/internal/model"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

type EventStore struct {
	mock.Mock
}

func (m *EventStore) Create(ctx context.Context, event model.Event) (model.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *EventStore) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	args := m.Called(ctx, userID)
	events, _ := args.Get(0).([]model.Event)
	return events, args.Error(1)
}

func (m *EventStore) MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *EventStore) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return m.Called(ctx, eventID, userID).Error(0)
}

func (m *EventStore) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return m.Called(ctx, eventID, userID).Error(0)
}

type TimeslotStore struct {
	mock.Mock
}

func (m *TimeslotStore) Create(ctx context.Context, timeslot model.Timeslot) (model.Timeslot, error) {
	args := m.Called(ctx, timeslot)
	return args.Get(0).(model.Timeslot), args.Error(1)
}

func (m *TimeslotStore) GetByID(ctx context.Context, id uuid.UUID) (model.Timeslot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Timeslot), args.Error(1)
}

func (m *TimeslotStore) GetByEventAndRange(ctx context.Context, eventID uuid.UUID, start, end time.Time) (model.Timeslot, error) {
	args := m.Called(ctx, eventID, start, end)
	return args.Get(0).(model.Timeslot), args.Error(1)
}

func (m *TimeslotStore) GetByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) ([]model.Timeslot, error) {
	args := m.Called(ctx, proposerID, eventID)
	slots, _ := args.Get(0).([]model.Timeslot)
	return slots, args.Error(1)
}

func (m *TimeslotStore) DeleteByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, proposerID, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TimeslotStore) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type VoteStore struct {
	mock.Mock
}

func (m *VoteStore) Create(ctx context.Context, vote model.Vote) (bool, error) {
	args := m.Called(ctx, vote)
	return args.Bool(0), args.Error(1)
}

func (m *VoteStore) GetByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (model.Vote, error) {
	args := m.Called(ctx, userID, timeslotID)
	return args.Get(0).(model.Vote), args.Error(1)
}

func (m *VoteStore) GetByTimeslot(ctx context.Context, timeslotID uuid.UUID) ([]model.Vote, error) {
	args := m.Called(ctx, timeslotID)
	votes, _ := args.Get(0).([]model.Vote)
	return votes, args.Error(1)
}

func (m *VoteStore) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Vote, error) {
	args := m.Called(ctx, userID)
	votes, _ := args.Get(0).([]model.Vote)
	return votes, args.Error(1)
}

func (m *VoteStore) DeleteByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, timeslotID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *VoteStore) DeleteByTimeslot(ctx context.Context, timeslotID uuid.UUID) (int64, error) {
	args := m.Called(ctx, timeslotID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *VoteStore) DeleteByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, eventID)
	return args.Get(0).(int64), args.Error(1)
}

// Transactor records the call and runs fn unless an error is configured.
type Transactor struct {
	mock.Mock
}

func (m *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type RefreshTokenStore struct {
	mock.Mock
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *RefreshTokenStore) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	args := m.Called(ctx, jti)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) RevokeByJTI(ctx context.Context, jti string) error {
	return m.Called(ctx, jti).Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

var (
	_ model.UserStore         = (*UserStore)(nil)
	_ model.EventStore        = (*EventStore)(nil)
	_ model.TimeslotStore     = (*TimeslotStore)(nil)
	_ model.VoteStore         = (*VoteStore)(nil)
	_ model.Transactor        = (*Transactor)(nil)
	_ model.RefreshTokenStore = (*RefreshTokenStore)(nil)
)
