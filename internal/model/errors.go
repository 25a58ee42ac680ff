package model

import "errors"

// Failure kinds returned by stores and services. Callers match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRange    = errors.New("start time must be before end time")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrLocked          = errors.New("event is already finalized")
	ErrExpired         = errors.New("timeslot has already started")
	ErrUnauthenticated = errors.New("unauthenticated")
)
