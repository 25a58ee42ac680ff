package calendar

import (
	"bytes"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/eventpoll-server/internal/model"
)

func TestICS_Render(t *testing.T) {
	organizer := model.User{ID: uuid.New(), Email: "carol@example.com", FirstName: "Carol", LastName: "Creator"}
	u1 := model.User{ID: uuid.New(), Email: "u1@example.com", FirstName: "Uma"}

	start := time.Date(2030, 5, 5, 0, 0, 0, 0, time.UTC)
	slot := model.Timeslot{ID: uuid.New(), Start: start, End: start.Add(24 * time.Hour), Finalized: true}
	event := model.Event{
		ID:          uuid.New(),
		Title:       "Board game night",
		Description: "Bring snacks",
		CreatorID:   organizer.ID,
		CreatedAt:   start.Add(-48 * time.Hour),
	}

	r := NewICS()
	out, err := r.Render(event, slot, organizer, []model.User{organizer, u1})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "SUMMARY:Board game night")
	assert.Contains(t, text, "carol@example.com")
	assert.Contains(t, text, "u1@example.com")

	cal, err := ics.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	gotStart, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(gotStart))

	gotEnd, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.True(t, slot.End.Equal(gotEnd))

	assert.Len(t, events[0].Attendees(), 1)
}

func TestICS_Render_EmptyRange(t *testing.T) {
	now := time.Now()
	_, err := NewICS().Render(model.Event{ID: uuid.New()}, model.Timeslot{Start: now, End: now}, model.User{}, nil)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("1f0c43a4-6bb4-4b7a-9a9b-6a0b0c7f1e11")
	assert.Equal(t, "events/1f0c43a4-6bb4-4b7a-9a9b-6a0b0c7f1e11.ics", Key(id))
}
