package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

type signupRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type createEventRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	RequiredVotes *int    `json:"required_votes"`
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type timeslotRequest struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type statusResponse struct {
	ID     uuid.UUID         `json:"id"`
	Status model.EventStatus `json:"status"`
}

type eventResponse struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Finalized      bool               `json:"finalized"`
	RequiredVotes  int                `json:"required_votes"`
	CreatorID      uuid.UUID          `json:"creator_id"`
	ParticipantIDs []uuid.UUID        `json:"participant_ids"`
	Timeslots      []timeslotResponse `json:"timeslots"`
}

type timeslotResponse struct {
	ID         uuid.UUID      `json:"id"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Finalized  bool           `json:"finalized"`
	ProposerID uuid.UUID      `json:"proposer_id"`
	Votes      []voteResponse `json:"votes"`
}

type voteResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	TimeslotID uuid.UUID `json:"timeslot_id"`
}

func newEventResponse(v model.EventView) eventResponse {
	participants := v.ParticipantIDs
	if participants == nil {
		participants = []uuid.UUID{}
	}
	return eventResponse{
		ID:             v.ID,
		Title:          v.Title,
		Description:    v.Description,
		Finalized:      v.Finalized,
		RequiredVotes:  v.RequiredVotes,
		CreatorID:      v.CreatorID,
		ParticipantIDs: participants,
		Timeslots:      newTimeslotResponses(v.Timeslots),
	}
}

func newEventResponses(views []model.EventView) []eventResponse {
	out := make([]eventResponse, 0, len(views))
	for _, v := range views {
		out = append(out, newEventResponse(v))
	}
	return out
}

func newTimeslotResponses(views []model.TimeslotView) []timeslotResponse {
	out := make([]timeslotResponse, 0, len(views))
	for _, t := range views {
		votes := make([]voteResponse, 0, len(t.Votes))
		for _, v := range t.Votes {
			votes = append(votes, voteResponse{ID: v.ID, UserID: v.UserID, TimeslotID: v.TimeslotID})
		}
		out = append(out, timeslotResponse{
			ID:         t.ID,
			StartTime:  t.Start.UTC(),
			EndTime:    t.End.UTC(),
			Finalized:  t.Finalized,
			ProposerID: t.ProposerID,
			Votes:      votes,
		})
	}
	return out
}
