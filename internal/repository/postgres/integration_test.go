//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/eventpoll-server/internal/model"
	repo "github.com/dtroode/eventpoll-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "eventpoll_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/eventpoll_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

type stores struct {
	conn      *repo.Connection
	users     *repo.UserRepository
	events    *repo.EventRepository
	timeslots *repo.TimeslotRepository
	votes     *repo.VoteRepository
	tokens    *repo.RefreshTokenRepository
	tx        *repo.TxManager
}

func newStores(t *testing.T) stores {
	t.Helper()
	conn, err := repo.NewConnection(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return stores{
		conn:      conn,
		users:     repo.NewUserRepository(conn),
		events:    repo.NewEventRepository(conn),
		timeslots: repo.NewTimeslotRepository(conn),
		votes:     repo.NewVoteRepository(conn),
		tokens:    repo.NewRefreshTokenRepository(conn),
		tx:        repo.NewTxManager(conn),
	}
}

func createUser(t *testing.T, s stores, email string) model.User {
	t.Helper()
	now := time.Now().UTC()
	u, err := s.users.Create(context.Background(), model.User{
		ID: uuid.New(), Email: email, FirstName: "F", LastName: "L",
		PasswordHash: "hash", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return u
}

func createEvent(t *testing.T, s stores, creator model.User) model.Event {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	e, err := s.events.Create(ctx, model.Event{
		ID: uuid.New(), Title: "Standup", Description: "daily", RequiredVotes: 2,
		CreatorID: creator.ID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, s.events.AddParticipant(ctx, e.ID, creator.ID))
	return e
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	u := createUser(t, s, "User@Example.com")
	assert.Equal(t, "user@example.com", u.Email)

	byEmail, err := s.users.GetByEmail(ctx, "USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	_, err = s.users.Create(ctx, model.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = s.users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)

	list, err := s.users.GetByIDs(ctx, []uuid.UUID{u.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, u.ID, list[0].ID)
}

func TestEventAggregate(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	creator := createUser(t, s, "creator@example.com")
	guest := createUser(t, s, "guest@example.com")
	e := createEvent(t, s, creator)

	require.NoError(t, s.events.AddParticipant(ctx, e.ID, guest.ID))
	require.NoError(t, s.events.AddParticipant(ctx, e.ID, guest.ID))

	start := time.Date(2030, 5, 5, 0, 0, 0, 0, time.UTC)
	slot, err := s.timeslots.Create(ctx, model.Timeslot{
		ID: uuid.New(), EventID: e.ID, ProposerID: creator.ID,
		Start: start, End: start.Add(24 * time.Hour), CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = s.timeslots.Create(ctx, model.Timeslot{
		ID: uuid.New(), EventID: e.ID, ProposerID: guest.ID,
		Start: start, End: start.Add(24 * time.Hour), CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = s.timeslots.Create(ctx, model.Timeslot{
		ID: uuid.New(), EventID: e.ID, ProposerID: guest.ID,
		Start: start, End: start, CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	inserted, err := s.votes.Create(ctx, model.Vote{ID: uuid.New(), UserID: guest.ID, TimeslotID: slot.ID, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = s.votes.Create(ctx, model.Vote{ID: uuid.New(), UserID: guest.ID, TimeslotID: slot.ID, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{creator.ID, guest.ID}, got.ParticipantIDs)
	require.Len(t, got.Timeslots, 1)
	assert.Len(t, got.Timeslots[0].Votes, 1)
	assert.True(t, got.Timeslots[0].Start.Equal(start))

	events, err := s.events.GetByParticipant(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)

	deleted, err := s.votes.DeleteByUserAndEvent(ctx, guest.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	require.NoError(t, s.events.MarkFinalized(ctx, e.ID, time.Now().UTC()))
	require.NoError(t, s.timeslots.MarkFinalized(ctx, slot.ID))
	got, err = s.events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.NotNil(t, got.FinalizedAt)
	assert.True(t, got.Timeslots[0].Finalized)
}

func TestTxManager_Rollback(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	creator := createUser(t, s, "tx@example.com")

	id := uuid.New()
	boom := errors.New("boom")
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		if _, err := s.events.Create(ctx, model.Event{
			ID: id, Title: "t", Description: "d", RequiredVotes: 1,
			CreatorID: creator.ID, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.events.GetByID(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestConcurrentVotes(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	creator := createUser(t, s, "c-concurrent@example.com")
	e := createEvent(t, s, creator)
	start := time.Date(2031, 1, 1, 10, 0, 0, 0, time.UTC)
	slot, err := s.timeslots.Create(ctx, model.Timeslot{
		ID: uuid.New(), EventID: e.ID, ProposerID: creator.ID,
		Start: start, End: start.Add(time.Hour), CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	voters := make([]model.User, 5)
	for i := range voters {
		voters[i] = createUser(t, s, fmt.Sprintf("voter%d@example.com", i))
		require.NoError(t, s.events.AddParticipant(ctx, e.ID, voters[i].ID))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(voters))
	for _, v := range voters {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			errs <- s.tx.WithinTx(ctx, func(ctx context.Context) error {
				if _, err := s.events.GetForUpdate(ctx, e.ID); err != nil {
					return err
				}
				_, err := s.votes.Create(ctx, model.Vote{ID: uuid.New(), UserID: userID, TimeslotID: slot.ID, CreatedAt: time.Now().UTC()})
				return err
			})
		}(v.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	votes, err := s.votes.GetByTimeslot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, votes, len(voters))
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	u := createUser(t, s, "tokens-"+uuid.NewString()+"@example.com")

	now := time.Now().UTC()
	first := model.RefreshToken{
		JTI: uuid.NewString(), UserID: u.ID, TokenHash: []byte{1, 2, 3},
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, s.tokens.Create(ctx, first))

	rotatedFrom := first.JTI
	second := model.RefreshToken{
		JTI: uuid.NewString(), UserID: u.ID, TokenHash: []byte{4, 5, 6},
		IssuedAt: now, ExpiresAt: now.Add(time.Hour), RotatedFromJTI: &rotatedFrom,
	}
	require.NoError(t, s.tokens.Create(ctx, second))

	got, err := s.tokens.GetByJTI(ctx, first.JTI)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, first.TokenHash, got.TokenHash)
	assert.WithinDuration(t, first.ExpiresAt, got.ExpiresAt, time.Millisecond)
	assert.Nil(t, got.RevokedAt)
	assert.Nil(t, got.RotatedFromJTI)

	_, err = s.tokens.GetByJTI(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.tokens.RevokeByJTI(ctx, first.JTI))
	got, err = s.tokens.GetByJTI(ctx, first.JTI)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)

	require.NoError(t, s.tokens.RevokeAllByUser(ctx, u.ID))
	got, err = s.tokens.GetByJTI(ctx, second.JTI)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.NotNil(t, got.RotatedFromJTI)
	assert.Equal(t, first.JTI, *got.RotatedFromJTI)
}

func TestRefreshTokenRepository_JoinsTransaction(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	u := createUser(t, s, "tokens-tx-"+uuid.NewString()+"@example.com")

	now := time.Now().UTC()
	rt := model.RefreshToken{
		JTI: uuid.NewString(), UserID: u.ID, TokenHash: []byte{7},
		IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	rollback := errors.New("rollback")
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.tokens.Create(ctx, rt))
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	_, err = s.tokens.GetByJTI(ctx, rt.JTI)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
