package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.VoteStore = (*VoteRepository)(nil)

type VoteRepository struct {
	s *Store
}

func NewVoteRepository(s *Store) *VoteRepository {
	return &VoteRepository{s: s}
}

func (r *VoteRepository) Create(ctx context.Context, vote model.Vote) (bool, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.st.timeslots[vote.TimeslotID]; !ok {
		return false, fmt.Errorf("timeslot %s: %w", vote.TimeslotID, model.ErrNotFound)
	}
	for _, v := range r.s.st.votes {
		if v.UserID == vote.UserID && v.TimeslotID == vote.TimeslotID {
			return false, nil
		}
	}

	r.s.st.votes[vote.ID] = vote
	return true, nil
}

func (r *VoteRepository) GetByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (model.Vote, error) {
	defer r.s.lock(ctx)()

	for _, v := range r.s.st.votes {
		if v.UserID == userID && v.TimeslotID == timeslotID {
			return v, nil
		}
	}
	return model.Vote{}, model.ErrNotFound
}

func (r *VoteRepository) GetByTimeslot(ctx context.Context, timeslotID uuid.UUID) ([]model.Vote, error) {
	return r.collect(ctx, func(v model.Vote) bool { return v.TimeslotID == timeslotID }), nil
}

func (r *VoteRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Vote, error) {
	return r.collect(ctx, func(v model.Vote) bool { return v.UserID == userID }), nil
}

func (r *VoteRepository) DeleteByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, func(v model.Vote) bool {
		return v.UserID == userID && v.TimeslotID == timeslotID
	}), nil
}

func (r *VoteRepository) DeleteByTimeslot(ctx context.Context, timeslotID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, func(v model.Vote) bool { return v.TimeslotID == timeslotID }), nil
}

func (r *VoteRepository) DeleteByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for id, v := range r.s.st.votes {
		if v.UserID == userID && r.s.st.timeslots[v.TimeslotID].EventID == eventID {
			delete(r.s.st.votes, id)
			n++
		}
	}
	return n, nil
}

func (r *VoteRepository) collect(ctx context.Context, match func(model.Vote) bool) []model.Vote {
	defer r.s.lock(ctx)()

	votes := []model.Vote{}
	for _, v := range r.s.st.votes {
		if match(v) {
			votes = append(votes, v)
		}
	}
	sortVotes(votes)
	return votes
}

func (r *VoteRepository) deleteWhere(ctx context.Context, match func(model.Vote) bool) int64 {
	defer r.s.lock(ctx)()

	var n int64
	for id, v := range r.s.st.votes {
		if match(v) {
			delete(r.s.st.votes, id)
			n++
		}
	}
	return n
}
