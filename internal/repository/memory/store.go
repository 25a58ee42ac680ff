// Package memory keeps all state in process memory behind the same store
// interfaces as the postgres package. Transactions are serialized and roll
// back by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.Transactor = (*Store)(nil)

type state struct {
	users         map[uuid.UUID]model.User
	events        map[uuid.UUID]model.Event
	participants  map[uuid.UUID][]uuid.UUID
	timeslots     map[uuid.UUID]model.Timeslot
	votes         map[uuid.UUID]model.Vote
	refreshTokens map[string]model.RefreshToken
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]model.User),
		events:        make(map[uuid.UUID]model.Event),
		participants:  make(map[uuid.UUID][]uuid.UUID),
		timeslots:     make(map[uuid.UUID]model.Timeslot),
		votes:         make(map[uuid.UUID]model.Vote),
		refreshTokens: make(map[string]model.RefreshToken),
	}
}

func (st *state) clone() *state {
	participants := make(map[uuid.UUID][]uuid.UUID, len(st.participants))
	for id, ids := range st.participants {
		participants[id] = slices.Clone(ids)
	}
	return &state{
		users:         maps.Clone(st.users),
		events:        maps.Clone(st.events),
		participants:  participants,
		timeslots:     maps.Clone(st.timeslots),
		votes:         maps.Clone(st.votes),
		refreshTokens: maps.Clone(st.refreshTokens),
	}
}

type txKey struct{}

// Store holds the data shared by the memory repositories.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock serializes a single operation unless ctx already holds the transaction lock.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn while holding the store lock. When fn fails every change
// made through ctx is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}
