// Package apierrors defines client-facing errors. Each error carries the HTTP
// status and message shown to the caller and unwraps to a model sentinel, so
// services can return them and callers can still match with errors.Is.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/model"
)

// APIError is an error safe to show to API clients.
type APIError struct {
	HTTPStatus int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the model sentinel describing the failure kind.
func (e *APIError) Unwrap() error {
	return e.kind
}

func newError(kind error, format string, args ...any) *APIError {
	return &APIError{
		HTTPStatus: StatusFor(kind),
		Message:    fmt.Sprintf(format, args...),
		kind:       kind,
	}
}

// StatusFor returns the HTTP status of a failure kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidRange), errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrLocked):
		return http.StatusLocked
	case errors.Is(err, model.ErrExpired):
		return http.StatusGone
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func NewErrUserNotFound(id uuid.UUID) *APIError {
	return newError(model.ErrNotFound, "user %s not found", id)
}

func NewErrUserEmailNotFound(email string) *APIError {
	return newError(model.ErrNotFound, "user with email %s not found", email)
}

func NewErrEventNotFound(id uuid.UUID) *APIError {
	return newError(model.ErrNotFound, "event %s not found", id)
}

func NewErrTimeslotNotFound(id uuid.UUID) *APIError {
	return newError(model.ErrNotFound, "timeslot %s not found", id)
}

func NewErrVoteNotFound(timeslotID uuid.UUID) *APIError {
	return newError(model.ErrNotFound, "failed to cast vote: no vote found for timeslot %s", timeslotID)
}

func NewErrInvalidRange() *APIError {
	return newError(model.ErrInvalidRange, "start time must be before end time")
}

func NewErrInvalidArgument(msg string) *APIError {
	return newError(model.ErrInvalidArgument, "%s", msg)
}

func NewErrDuplicateTimeslot() *APIError {
	return newError(model.ErrConflict, "this time range has already been proposed for the event")
}

func NewErrThresholdNotReached(votes, required int) *APIError {
	return newError(model.ErrConflict, "threshold not reached: %d of %d required votes", votes, required)
}

func NewErrNoTimeslots(eventID uuid.UUID) *APIError {
	return newError(model.ErrConflict, "event %s has no timeslots to finalize", eventID)
}

func NewErrEventNotFinalized(eventID uuid.UUID) *APIError {
	return newError(model.ErrConflict, "event %s is not finalized yet", eventID)
}

func NewErrTimeslotExpired(start string) *APIError {
	return newError(model.ErrExpired, "timeslot starting at %s is no longer in the future", start)
}

func NewErrEmailIsTaken(email string) *APIError {
	return newError(model.ErrConflict, "email %s is already registered", email)
}

func NewErrInvalidCredentials() *APIError {
	return newError(model.ErrUnauthenticated, "invalid credentials")
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(model.ErrUnauthenticated, "missing authorization token")
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(model.ErrUnauthenticated, "invalid authorization token")
}

// FromDomain converts a wrapped model sentinel (for example from
// model.Event.Authorize) into an APIError with a generic message.
// Other errors are returned unchanged.
func FromDomain(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, model.ErrForbidden):
		return newError(model.ErrForbidden, "you are not allowed to perform this action")
	case errors.Is(err, model.ErrLocked):
		return newError(model.ErrLocked, "event is already finalized")
	default:
		return err
	}
}
