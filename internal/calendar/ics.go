// Package calendar renders finalized events as iCalendar (RFC 5545) files.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dtroode/eventpoll-server/internal/model"
)

const productID = "-//eventpoll//scheduling poll//EN"

// ContentType is the media type of rendered files.
const ContentType = "text/calendar; charset=utf-8"

var _ model.CalendarRenderer = (*ICS)(nil)

// ICS renders events with github.com/arran4/golang-ical.
type ICS struct {
	now func() time.Time
}

// NewICS creates a renderer.
func NewICS() *ICS {
	return &ICS{now: time.Now}
}

// Key returns the object storage key of an event's calendar file.
func Key(eventID fmt.Stringer) string {
	return "events/" + eventID.String() + ".ics"
}

// Render builds a single-event calendar for the finalized slot of event.
func (r *ICS) Render(event model.Event, slot model.Timeslot, organizer model.User, attendees []model.User) ([]byte, error) {
	if !slot.Start.Before(slot.End) {
		return nil, fmt.Errorf("failed to render calendar: slot %s has an empty range", slot.ID)
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent(event.ID.String() + "@eventpoll")
	ev.SetDtStampTime(r.now().UTC())
	ev.SetCreatedTime(event.CreatedAt.UTC())
	ev.SetStartAt(slot.Start.UTC())
	ev.SetEndAt(slot.End.UTC())
	ev.SetSummary(event.Title)
	ev.SetDescription(event.Description)
	ev.SetOrganizer("mailto:"+organizer.Email, ics.WithCN(organizer.DisplayName()))

	for _, a := range attendees {
		if a.ID == organizer.ID {
			continue
		}
		ev.AddAttendee(a.Email,
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusAccepted,
			ics.WithCN(a.DisplayName()),
		)
	}

	return []byte(cal.Serialize()), nil
}
