package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Capability is an action a user may attempt on an event.
type Capability int

const (
	CapView Capability = iota
	CapInvite
	CapDecline
	CapPropose
	CapVote
	CapViewVotes
	CapFinalize
)

func (c Capability) String() string {
	switch c {
	case CapView:
		return "view"
	case CapInvite:
		return "invite"
	case CapDecline:
		return "decline"
	case CapPropose:
		return "propose"
	case CapVote:
		return "vote"
	case CapViewVotes:
		return "view votes"
	case CapFinalize:
		return "finalize"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

func (c Capability) mutates() bool {
	return c != CapView && c != CapViewVotes
}

// Authorize checks that userID may perform c on the event.
// It returns an error wrapping ErrForbidden when the role does not allow the
// action and ErrLocked for any mutation of a finalized event.
func (e *Event) Authorize(userID uuid.UUID, c Capability) error {
	var allowed bool
	switch c {
	case CapView, CapPropose:
		allowed = e.IsParticipant(userID)
	case CapInvite, CapViewVotes, CapFinalize:
		allowed = e.IsCreator(userID)
	case CapDecline, CapVote:
		allowed = !e.IsCreator(userID) && e.IsParticipant(userID)
	}
	if !allowed {
		return fmt.Errorf("user %s may not %s event %s: %w", userID, c, e.ID, ErrForbidden)
	}

	if c.mutates() && e.Finalized {
		return fmt.Errorf("cannot %s event %s: %w", c, e.ID, ErrLocked)
	}
	return nil
}
