package service

import (
	"slices"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

// project converts an event into the view returned to viewerID. Vote detail
// is only included for the event creator.
func project(event model.Event, viewerID uuid.UUID) model.EventView {
	withVotes := event.IsCreator(viewerID)

	timeslots := slices.Clone(event.Timeslots)
	model.SortTimeslots(timeslots)

	views := make([]model.TimeslotView, 0, len(timeslots))
	for _, t := range timeslots {
		views = append(views, projectTimeslot(t, withVotes))
	}

	participants := slices.Clone(event.ParticipantIDs)
	if participants == nil {
		participants = []uuid.UUID{}
	}

	return model.EventView{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Finalized:      event.Finalized,
		RequiredVotes:  event.RequiredVotes,
		CreatorID:      event.CreatorID,
		ParticipantIDs: participants,
		Timeslots:      views,
	}
}

func projectTimeslot(t model.Timeslot, withVotes bool) model.TimeslotView {
	votes := []model.VoteView{}
	if withVotes {
		for _, v := range t.Votes {
			votes = append(votes, model.VoteView{
				ID:         v.ID,
				UserID:     v.UserID,
				TimeslotID: v.TimeslotID,
			})
		}
	}

	return model.TimeslotView{
		ID:         t.ID,
		Start:      t.Start,
		End:        t.End,
		Finalized:  t.Finalized,
		ProposerID: t.ProposerID,
		Votes:      votes,
	}
}
