package model

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Event defaults applied on creation.
const (
	DefaultEventTitle       = "Untitled Event"
	DefaultEventDescription = "No description provided."
	DefaultRequiredVotes    = 5
)

// EventStore defines persistence operations for events and their participants.
type EventStore interface {
	Create(ctx context.Context, event Event) (Event, error)
	// GetByID loads the whole aggregate: participants, timeslots and votes.
	GetByID(ctx context.Context, id uuid.UUID) (Event, error)
	// GetForUpdate loads the aggregate and locks the event until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (Event, error)
	GetByParticipant(ctx context.Context, userID uuid.UUID) ([]Event, error)
	MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error
}

// TimeslotStore defines persistence operations for timeslots.
type TimeslotStore interface {
	Create(ctx context.Context, timeslot Timeslot) (Timeslot, error)
	GetByID(ctx context.Context, id uuid.UUID) (Timeslot, error)
	GetByEventAndRange(ctx context.Context, eventID uuid.UUID, start, end time.Time) (Timeslot, error)
	GetByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) ([]Timeslot, error)
	DeleteByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) (int64, error)
	MarkFinalized(ctx context.Context, id uuid.UUID) error
}

// VoteStore defines persistence operations for votes.
type VoteStore interface {
	// Create inserts the vote unless the (user, timeslot) pair already voted.
	// It reports whether a row was inserted.
	Create(ctx context.Context, vote Vote) (bool, error)
	GetByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (Vote, error)
	GetByTimeslot(ctx context.Context, timeslotID uuid.UUID) ([]Vote, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]Vote, error)
	DeleteByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (int64, error)
	DeleteByTimeslot(ctx context.Context, timeslotID uuid.UUID) (int64, error)
	DeleteByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (int64, error)
}

// Transactor runs fn atomically. Stores called with the ctx passed to fn
// take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Event is a schedulable activity with a creator, participants and candidate timeslots.
type Event struct {
	ID             uuid.UUID
	Title          string
	Description    string
	RequiredVotes  int
	Finalized      bool
	FinalizedAt    *time.Time
	CreatorID      uuid.UUID
	ParticipantIDs []uuid.UUID
	Timeslots      []Timeslot
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Timeslot is a proposed time range for an event.
type Timeslot struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	ProposerID uuid.UUID
	Start      time.Time
	End        time.Time
	Finalized  bool
	CreatedAt  time.Time
	Votes      []Vote
}

// Vote is a participant's endorsement of one timeslot.
type Vote struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TimeslotID uuid.UUID
	CreatedAt  time.Time
}

// ValidRange reports whether start is strictly before end.
func ValidRange(start, end time.Time) bool {
	return start.Before(end)
}

// IsCreator reports whether userID created the event.
func (e *Event) IsCreator(userID uuid.UUID) bool {
	return e.CreatorID == userID
}

// IsParticipant reports whether userID takes part in the event. The creator always does.
func (e *Event) IsParticipant(userID uuid.UUID) bool {
	return e.IsCreator(userID) || slices.Contains(e.ParticipantIDs, userID)
}

// Timeslot returns the event's timeslot with the given id.
func (e *Event) Timeslot(id uuid.UUID) (Timeslot, bool) {
	for _, t := range e.Timeslots {
		if t.ID == id {
			return t, true
		}
	}
	return Timeslot{}, false
}

// HasRange reports whether a timeslot with exactly this range already exists.
func (e *Event) HasRange(start, end time.Time) bool {
	for _, t := range e.Timeslots {
		if t.Start.Equal(start) && t.End.Equal(end) {
			return true
		}
	}
	return false
}

// WinningTimeslot returns the timeslot with the most votes.
// Ties go to the earliest created timeslot, then to the lowest id.
func (e *Event) WinningTimeslot() (Timeslot, bool) {
	if len(e.Timeslots) == 0 {
		return Timeslot{}, false
	}
	best := e.Timeslots[0]
	for _, t := range e.Timeslots[1:] {
		if beats(t, best) {
			best = t
		}
	}
	return best, true
}

func beats(a, b Timeslot) bool {
	if len(a.Votes) != len(b.Votes) {
		return len(a.Votes) > len(b.Votes)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// SortTimeslots orders timeslots by creation time, then id.
func SortTimeslots(ts []Timeslot) {
	slices.SortStableFunc(ts, func(a, b Timeslot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}

// HasVote reports whether userID voted for the timeslot.
func (t *Timeslot) HasVote(userID uuid.UUID) bool {
	for _, v := range t.Votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// EventStatus is the three-way state of an event lookup.
type EventStatus string

const (
	// StatusNotFound means no event has the requested id.
	StatusNotFound EventStatus = "not_found"
	// StatusOpen means the event accepts proposals and votes.
	StatusOpen EventStatus = "open"
	// StatusFinalized means the event is locked.
	StatusFinalized EventStatus = "finalized"
)

// CreateEventParams contains parameters to create an event.
// Nil pointers take the defaults.
type CreateEventParams struct {
	CreatorID     uuid.UUID
	Title         *string
	Description   *string
	Start         time.Time
	End           time.Time
	RequiredVotes *int
}

// SortEvents orders events by creation time, then id.
func SortEvents(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
