package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.TimeslotStore = (*TimeslotRepository)(nil)

type TimeslotRepository struct {
	s *Store
}

func NewTimeslotRepository(s *Store) *TimeslotRepository {
	return &TimeslotRepository{s: s}
}

func (r *TimeslotRepository) Create(ctx context.Context, timeslot model.Timeslot) (model.Timeslot, error) {
	defer r.s.lock(ctx)()

	if !model.ValidRange(timeslot.Start, timeslot.End) {
		return model.Timeslot{}, model.ErrInvalidRange
	}
	if _, ok := r.s.st.events[timeslot.EventID]; !ok {
		return model.Timeslot{}, fmt.Errorf("event %s: %w", timeslot.EventID, model.ErrNotFound)
	}
	for _, t := range r.s.st.timeslots {
		if t.EventID == timeslot.EventID && t.Start.Equal(timeslot.Start) && t.End.Equal(timeslot.End) {
			return model.Timeslot{}, fmt.Errorf("timeslot range already proposed: %w", model.ErrConflict)
		}
	}

	timeslot.Votes = nil
	r.s.st.timeslots[timeslot.ID] = timeslot
	timeslot.Votes = []model.Vote{}
	return timeslot, nil
}

func (r *TimeslotRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Timeslot, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.st.timeslots[id]
	if !ok {
		return model.Timeslot{}, model.ErrNotFound
	}
	return r.s.st.withVotes(t), nil
}

func (r *TimeslotRepository) GetByEventAndRange(ctx context.Context, eventID uuid.UUID, start, end time.Time) (model.Timeslot, error) {
	defer r.s.lock(ctx)()

	for _, t := range r.s.st.timeslots {
		if t.EventID == eventID && t.Start.Equal(start) && t.End.Equal(end) {
			return t, nil
		}
	}
	return model.Timeslot{}, model.ErrNotFound
}

func (r *TimeslotRepository) GetByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) ([]model.Timeslot, error) {
	defer r.s.lock(ctx)()

	slots := []model.Timeslot{}
	for _, t := range r.s.st.timeslots {
		if t.ProposerID == proposerID && t.EventID == eventID {
			slots = append(slots, t)
		}
	}
	model.SortTimeslots(slots)
	return slots, nil
}

// DeleteByProposerAndEvent removes the proposer's timeslots of the event.
// It fails while any of them still has votes.
func (r *TimeslotRepository) DeleteByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	var ids []uuid.UUID
	for id, t := range r.s.st.timeslots {
		if t.ProposerID == proposerID && t.EventID == eventID {
			ids = append(ids, id)
		}
	}
	for _, v := range r.s.st.votes {
		for _, id := range ids {
			if v.TimeslotID == id {
				return 0, fmt.Errorf("timeslot %s still has votes", id)
			}
		}
	}

	for _, id := range ids {
		delete(r.s.st.timeslots, id)
	}
	return int64(len(ids)), nil
}

func (r *TimeslotRepository) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.st.timeslots[id]
	if !ok {
		return model.ErrNotFound
	}
	t.Finalized = true
	r.s.st.timeslots[id] = t
	return nil
}
