package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.EventStore = (*EventRepository)(nil)

type EventRepository struct {
	s *Store
}

func NewEventRepository(s *Store) *EventRepository {
	return &EventRepository{s: s}
}

func (r *EventRepository) Create(ctx context.Context, event model.Event) (model.Event, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.events[event.ID]; ok {
		return model.Event{}, fmt.Errorf("event %s already exists: %w", event.ID, model.ErrConflict)
	}
	if _, ok := r.s.st.users[event.CreatorID]; !ok {
		return model.Event{}, fmt.Errorf("creator %s: %w", event.CreatorID, model.ErrNotFound)
	}

	event.ParticipantIDs = nil
	event.Timeslots = nil
	r.s.st.events[event.ID] = event
	return r.s.st.aggregate(event), nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.st.events[id]
	if !ok {
		return model.Event{}, model.ErrNotFound
	}
	return r.s.st.aggregate(e), nil
}

// GetForUpdate is GetByID; the transaction already holds the store lock.
func (r *EventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *EventRepository) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	defer r.s.lock(ctx)()

	events := []model.Event{}
	for eventID, ids := range r.s.st.participants {
		if slices.Contains(ids, userID) {
			events = append(events, r.s.st.aggregate(r.s.st.events[eventID]))
		}
	}
	model.SortEvents(events)
	return events, nil
}

func (r *EventRepository) MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.st.events[id]
	if !ok {
		return model.ErrNotFound
	}
	e.Finalized = true
	e.FinalizedAt = &at
	e.UpdatedAt = at
	r.s.st.events[id] = e
	return nil
}

func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.events[eventID]; !ok {
		return fmt.Errorf("event %s: %w", eventID, model.ErrNotFound)
	}
	if _, ok := r.s.st.users[userID]; !ok {
		return fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}

	ids := r.s.st.participants[eventID]
	if !slices.Contains(ids, userID) {
		r.s.st.participants[eventID] = append(ids, userID)
	}
	return nil
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	defer r.s.lock(ctx)()

	ids := r.s.st.participants[eventID]
	r.s.st.participants[eventID] = slices.DeleteFunc(slices.Clone(ids), func(id uuid.UUID) bool {
		return id == userID
	})
	return nil
}

// aggregate attaches participants, timeslots and votes to e.
func (st *state) aggregate(e model.Event) model.Event {
	e.ParticipantIDs = slices.Clone(st.participants[e.ID])
	if e.ParticipantIDs == nil {
		e.ParticipantIDs = []uuid.UUID{}
	}

	e.Timeslots = []model.Timeslot{}
	for _, t := range st.timeslots {
		if t.EventID == e.ID {
			e.Timeslots = append(e.Timeslots, st.withVotes(t))
		}
	}
	model.SortTimeslots(e.Timeslots)
	return e
}

func (st *state) withVotes(t model.Timeslot) model.Timeslot {
	t.Votes = []model.Vote{}
	for _, v := range st.votes {
		if v.TimeslotID == t.ID {
			t.Votes = append(t.Votes, v)
		}
	}
	sortVotes(t.Votes)
	return t
}

func sortVotes(votes []model.Vote) {
	slices.SortFunc(votes, func(a, b model.Vote) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
