package model

import (
	"time"

	"github.com/google/uuid"
)

// EventView is the projection of an event returned to a specific viewer.
type EventView struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Finalized      bool
	RequiredVotes  int
	CreatorID      uuid.UUID
	ParticipantIDs []uuid.UUID
	Timeslots      []TimeslotView
}

// TimeslotView is the projection of a timeslot. Votes is empty unless the
// viewer created the event.
type TimeslotView struct {
	ID         uuid.UUID
	Start      time.Time
	End        time.Time
	Finalized  bool
	ProposerID uuid.UUID
	Votes      []VoteView
}

// VoteView is the projection of a vote.
type VoteView struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TimeslotID uuid.UUID
}
