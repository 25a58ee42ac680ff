package model

import (
	"context"
	"io"
)

// Storage is an object store for generated files.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// CalendarRenderer renders a finalized event as an iCalendar file.
type CalendarRenderer interface {
	Render(event Event, slot Timeslot, organizer User, attendees []User) ([]byte, error)
}
