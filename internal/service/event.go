package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/apierrors"
	"github.com/dtroode/eventpoll-server/internal/calendar"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
)

// DeclineConfirmation is returned by a successful DeclineEvent.
const DeclineConfirmation = "Successfully declined event"

// Event runs the scheduling lifecycle: create, invite, decline, propose,
// vote and finalize. Every operation runs in one transaction.
type Event struct {
	userStore     model.UserStore
	eventStore    model.EventStore
	timeslotStore model.TimeslotStore
	voteStore     model.VoteStore
	tx            model.Transactor
	renderer      model.CalendarRenderer
	storage       model.Storage
	logger        *logger.Logger
	now           func() time.Time
}

// NewEvent creates the scheduling service. storage may be nil, in which case
// calendar files are rendered on every request.
func NewEvent(
	userStore model.UserStore,
	eventStore model.EventStore,
	timeslotStore model.TimeslotStore,
	voteStore model.VoteStore,
	tx model.Transactor,
	renderer model.CalendarRenderer,
	storage model.Storage,
	logger *logger.Logger,
) *Event {
	return &Event{
		userStore:     userStore,
		eventStore:    eventStore,
		timeslotStore: timeslotStore,
		voteStore:     voteStore,
		tx:            tx,
		renderer:      renderer,
		storage:       storage,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Event) CreateEvent(ctx context.Context, params model.CreateEventParams) (model.EventView, error) {
	s.logger.Debug("Event service: creating event",
		"creator_id", params.CreatorID)

	if !model.ValidRange(params.Start, params.End) {
		return model.EventView{}, s.reject("create event", apierrors.NewErrInvalidRange(),
			"creator_id", params.CreatorID)
	}

	title := model.DefaultEventTitle
	if params.Title != nil && strings.TrimSpace(*params.Title) != "" {
		title = strings.TrimSpace(*params.Title)
	}
	description := model.DefaultEventDescription
	if params.Description != nil {
		description = *params.Description
	}
	requiredVotes := model.DefaultRequiredVotes
	if params.RequiredVotes != nil {
		requiredVotes = *params.RequiredVotes
	}
	if requiredVotes <= 0 {
		return model.EventView{}, s.reject("create event", apierrors.NewErrInvalidArgument("required votes must be positive"),
			"creator_id", params.CreatorID)
	}

	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, params.CreatorID); err != nil {
			return err
		}

		now := s.now().UTC()
		created, err := s.eventStore.Create(ctx, model.Event{
			ID:            uuid.New(),
			Title:         title,
			Description:   description,
			RequiredVotes: requiredVotes,
			CreatorID:     params.CreatorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		if err := s.eventStore.AddParticipant(ctx, created.ID, params.CreatorID); err != nil {
			return fmt.Errorf("failed to add creator as participant: %w", err)
		}

		if _, err := s.timeslotStore.Create(ctx, model.Timeslot{
			ID:         uuid.New(),
			EventID:    created.ID,
			ProposerID: params.CreatorID,
			Start:      params.Start.UTC(),
			End:        params.End.UTC(),
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("failed to create initial timeslot: %w", err)
		}

		event, err = s.reload(ctx, created.ID)
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("create event", err,
			"creator_id", params.CreatorID)
	}

	s.logger.Info("Event service: event created",
		"event_id", event.ID,
		"creator_id", params.CreatorID)

	return project(event, params.CreatorID), nil
}

// InviteToEvent adds inviteeID to the event. Inviting a participant again is a no-op.
func (s *Event) InviteToEvent(ctx context.Context, senderID, eventID, inviteeID uuid.UUID) (model.EventView, error) {
	s.logger.Debug("Event service: inviting user",
		"event_id", eventID,
		"sender_id", senderID,
		"invitee_id", inviteeID)

	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.invite(ctx, senderID, eventID, func(ctx context.Context) (model.User, error) {
			return s.getUser(ctx, inviteeID)
		})
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("invite", err,
			"event_id", eventID,
			"sender_id", senderID)
	}

	return project(event, senderID), nil
}

// InviteByEmail resolves the invitee by email and invites them.
func (s *Event) InviteByEmail(ctx context.Context, senderID, eventID uuid.UUID, email string) (model.EventView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Debug("Event service: inviting user by email",
		"event_id", eventID,
		"sender_id", senderID,
		"email", email)

	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.invite(ctx, senderID, eventID, func(ctx context.Context) (model.User, error) {
			user, err := s.userStore.GetByEmail(ctx, email)
			if errors.Is(err, model.ErrNotFound) {
				return model.User{}, apierrors.NewErrUserEmailNotFound(email)
			}
			if err != nil {
				return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
			}
			return user, nil
		})
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("invite", err,
			"event_id", eventID,
			"sender_id", senderID)
	}

	return project(event, senderID), nil
}

func (s *Event) invite(
	ctx context.Context,
	senderID, eventID uuid.UUID,
	resolveInvitee func(ctx context.Context) (model.User, error),
) (model.Event, error) {
	if _, err := s.getUser(ctx, senderID); err != nil {
		return model.Event{}, err
	}
	invitee, err := resolveInvitee(ctx)
	if err != nil {
		return model.Event{}, err
	}
	event, err := s.lockEvent(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	if err := event.Authorize(senderID, model.CapInvite); err != nil {
		return model.Event{}, apierrors.FromDomain(err)
	}

	if event.IsParticipant(invitee.ID) {
		s.logger.Debug("Event service: invitee already participates",
			"event_id", eventID,
			"invitee_id", invitee.ID)
		return event, nil
	}

	if err := s.eventStore.AddParticipant(ctx, eventID, invitee.ID); err != nil {
		return model.Event{}, fmt.Errorf("failed to add participant: %w", err)
	}

	s.logger.Info("Event service: user invited",
		"event_id", eventID,
		"invitee_id", invitee.ID)

	return s.reload(ctx, eventID)
}

// DeclineEvent removes userID from the event together with the timeslots
// they proposed and every vote they cast on it.
func (s *Event) DeclineEvent(ctx context.Context, eventID, userID uuid.UUID) (string, error) {
	s.logger.Debug("Event service: declining event",
		"event_id", eventID,
		"user_id", userID)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		event, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := event.Authorize(userID, model.CapDecline); err != nil {
			return apierrors.FromDomain(err)
		}

		own, err := s.timeslotStore.GetByProposerAndEvent(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("failed to get proposed timeslots: %w", err)
		}
		for _, t := range own {
			if _, err := s.voteStore.DeleteByTimeslot(ctx, t.ID); err != nil {
				return fmt.Errorf("failed to delete votes of timeslot %s: %w", t.ID, err)
			}
		}
		removed, err := s.timeslotStore.DeleteByProposerAndEvent(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("failed to delete proposed timeslots: %w", err)
		}

		retracted, err := s.voteStore.DeleteByUserAndEvent(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("failed to delete cast votes: %w", err)
		}

		if err := s.eventStore.RemoveParticipant(ctx, eventID, userID); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}

		s.logger.Info("Event service: event declined",
			"event_id", eventID,
			"user_id", userID,
			"timeslots_removed", removed,
			"votes_removed", retracted)
		return nil
	})
	if err != nil {
		return "", s.reject("decline", err,
			"event_id", eventID,
			"user_id", userID)
	}

	return DeclineConfirmation, nil
}

func (s *Event) ProposeTimeslot(ctx context.Context, eventID, userID uuid.UUID, start, end time.Time) (model.EventView, error) {
	s.logger.Debug("Event service: proposing timeslot",
		"event_id", eventID,
		"user_id", userID,
		"start", start,
		"end", end)

	start, end = start.UTC(), end.UTC()

	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		locked, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := locked.Authorize(userID, model.CapPropose); err != nil {
			return apierrors.FromDomain(err)
		}
		if !model.ValidRange(start, end) {
			return apierrors.NewErrInvalidRange()
		}
		if locked.HasRange(start, end) {
			return apierrors.NewErrDuplicateTimeslot()
		}

		if _, err := s.timeslotStore.Create(ctx, model.Timeslot{
			ID:         uuid.New(),
			EventID:    eventID,
			ProposerID: userID,
			Start:      start,
			End:        end,
			CreatedAt:  s.now().UTC(),
		}); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return apierrors.NewErrDuplicateTimeslot()
			}
			return fmt.Errorf("failed to create timeslot: %w", err)
		}

		event, err = s.reload(ctx, eventID)
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("propose timeslot", err,
			"event_id", eventID,
			"user_id", userID)
	}

	s.logger.Info("Event service: timeslot proposed",
		"event_id", eventID,
		"user_id", userID)

	return project(event, userID), nil
}

// Vote casts userID's vote for the timeslot, or retracts it when remove is set.
// Casting an existing vote again changes nothing.
func (s *Event) Vote(ctx context.Context, userID, eventID, timeslotID uuid.UUID, remove bool) (model.EventView, error) {
	s.logger.Debug("Event service: voting",
		"event_id", eventID,
		"timeslot_id", timeslotID,
		"user_id", userID,
		"remove", remove)

	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		locked, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := locked.Authorize(userID, model.CapVote); err != nil {
			return apierrors.FromDomain(err)
		}
		if _, ok := locked.Timeslot(timeslotID); !ok {
			return apierrors.NewErrTimeslotNotFound(timeslotID)
		}

		if remove {
			n, err := s.voteStore.DeleteByUserAndTimeslot(ctx, userID, timeslotID)
			if err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
			if n == 0 {
				return apierrors.NewErrVoteNotFound(timeslotID)
			}
		} else {
			inserted, err := s.voteStore.Create(ctx, model.Vote{
				ID:         uuid.New(),
				UserID:     userID,
				TimeslotID: timeslotID,
				CreatedAt:  s.now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			if !inserted {
				s.logger.Debug("Event service: vote already cast",
					"timeslot_id", timeslotID,
					"user_id", userID)
			}
		}

		event, err = s.reload(ctx, eventID)
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("vote", err,
			"event_id", eventID,
			"timeslot_id", timeslotID,
			"user_id", userID)
	}

	s.logger.Info("Event service: vote recorded",
		"event_id", eventID,
		"timeslot_id", timeslotID,
		"user_id", userID,
		"remove", remove)

	return project(event, userID), nil
}

// GetVotes returns the event's timeslots with vote detail, or only the one
// with timeslotID when it is set. Only the creator may call it.
func (s *Event) GetVotes(ctx context.Context, userID, eventID uuid.UUID, timeslotID *uuid.UUID) ([]model.TimeslotView, error) {
	var views []model.TimeslotView
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		event, err := s.getEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := event.Authorize(userID, model.CapViewVotes); err != nil {
			return apierrors.FromDomain(err)
		}

		if timeslotID == nil {
			views = project(event, userID).Timeslots
			return nil
		}

		t, ok := event.Timeslot(*timeslotID)
		if !ok {
			return apierrors.NewErrTimeslotNotFound(*timeslotID)
		}
		views = []model.TimeslotView{projectTimeslot(t, true)}
		return nil
	})
	if err != nil {
		return nil, s.reject("get votes", err,
			"event_id", eventID,
			"user_id", userID)
	}

	return views, nil
}

// FinalizeEvent locks the event on its winning timeslot. Without force the
// winner needs at least RequiredVotes votes. The winner must start in the future.
func (s *Event) FinalizeEvent(ctx context.Context, userID, eventID uuid.UUID, force bool) (model.EventView, error) {
	s.logger.Debug("Event service: finalizing event",
		"event_id", eventID,
		"user_id", userID,
		"force", force)

	var (
		event  model.Event
		winner model.Timeslot
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		locked, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := locked.Authorize(userID, model.CapFinalize); err != nil {
			return apierrors.FromDomain(err)
		}

		var ok bool
		winner, ok = locked.WinningTimeslot()
		if !ok {
			return apierrors.NewErrNoTimeslots(eventID)
		}
		if !force && len(winner.Votes) < locked.RequiredVotes {
			return apierrors.NewErrThresholdNotReached(len(winner.Votes), locked.RequiredVotes)
		}
		now := s.now().UTC()
		if !winner.Start.After(now) {
			return apierrors.NewErrTimeslotExpired(winner.Start.Format(time.RFC3339))
		}

		if err := s.timeslotStore.MarkFinalized(ctx, winner.ID); err != nil {
			return fmt.Errorf("failed to finalize timeslot: %w", err)
		}
		if err := s.eventStore.MarkFinalized(ctx, eventID, now); err != nil {
			return fmt.Errorf("failed to finalize event: %w", err)
		}

		event, err = s.reload(ctx, eventID)
		return err
	})
	if err != nil {
		return model.EventView{}, s.reject("finalize", err,
			"event_id", eventID,
			"user_id", userID)
	}

	s.logger.Info("Event service: event finalized",
		"event_id", eventID,
		"timeslot_id", winner.ID,
		"votes", len(winner.Votes),
		"forced", force)

	s.publishCalendar(ctx, event)

	return project(event, userID), nil
}

// CheckEventFinalized reports whether the event exists and is still open.
func (s *Event) CheckEventFinalized(ctx context.Context, eventID uuid.UUID) bool {
	status, err := s.EventStatus(ctx, eventID)
	return err == nil && status == model.StatusOpen
}

// EventStatus distinguishes a missing event from an open or finalized one.
func (s *Event) EventStatus(ctx context.Context, eventID uuid.UUID) (model.EventStatus, error) {
	event, err := s.eventStore.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.StatusNotFound, nil
		}
		s.logger.Error("Event service: failed to get event status",
			"event_id", eventID,
			"error", err.Error())
		return "", fmt.Errorf("failed to get event: %w", err)
	}
	if event.Finalized {
		return model.StatusFinalized, nil
	}
	return model.StatusOpen, nil
}

// GetEvents returns every event userID participates in.
func (s *Event) GetEvents(ctx context.Context, userID uuid.UUID) ([]model.EventView, error) {
	var views []model.EventView
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.getUser(ctx, userID); err != nil {
			return err
		}
		events, err := s.eventStore.GetByParticipant(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}
		views = make([]model.EventView, 0, len(events))
		for _, e := range events {
			views = append(views, project(e, userID))
		}
		return nil
	})
	if err != nil {
		return nil, s.reject("get events", err,
			"user_id", userID)
	}
	return views, nil
}

func (s *Event) GetEvent(ctx context.Context, userID, eventID uuid.UUID) (model.EventView, error) {
	var event model.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.getEvent(ctx, eventID)
		if err != nil {
			return err
		}
		return apierrors.FromDomain(event.Authorize(userID, model.CapView))
	})
	if err != nil {
		return model.EventView{}, s.reject("get event", err,
			"event_id", eventID,
			"user_id", userID)
	}
	return project(event, userID), nil
}

// GetCalendar returns the iCalendar file of a finalized event. Stored files
// are served as is; a missing one is rendered and stored.
func (s *Event) GetCalendar(ctx context.Context, userID, eventID uuid.UUID) ([]byte, error) {
	var (
		event  model.Event
		stored []byte
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.getEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := event.Authorize(userID, model.CapView); err != nil {
			return apierrors.FromDomain(err)
		}
		if !event.Finalized {
			return apierrors.NewErrEventNotFinalized(eventID)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject("get calendar", err,
			"event_id", eventID,
			"user_id", userID)
	}

	if s.storage != nil {
		stored, err = s.downloadCalendar(ctx, eventID)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("Event service: failed to download calendar, rendering",
				"event_id", eventID,
				"error", err.Error())
		}
	}

	data, err := s.renderCalendar(ctx, event)
	if err != nil {
		s.logger.Error("Event service: failed to render calendar",
			"event_id", eventID,
			"error", err.Error())
		return nil, err
	}
	s.uploadCalendar(ctx, eventID, data)
	return data, nil
}

func (s *Event) downloadCalendar(ctx context.Context, eventID uuid.UUID) ([]byte, error) {
	key := calendar.Key(eventID)
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check calendar: %w", err)
	}
	if !exists {
		return nil, model.ErrNotFound
	}

	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}
	return data, nil
}

// publishCalendar stores the calendar of a just finalized event. Failures are
// only logged; GetCalendar renders the file again on demand.
func (s *Event) publishCalendar(ctx context.Context, event model.Event) {
	if s.storage == nil {
		return
	}
	data, err := s.renderCalendar(ctx, event)
	if err != nil {
		s.logger.Error("Event service: failed to render calendar",
			"event_id", event.ID,
			"error", err.Error())
		return
	}
	s.uploadCalendar(ctx, event.ID, data)
}

func (s *Event) uploadCalendar(ctx context.Context, eventID uuid.UUID, data []byte) {
	if s.storage == nil {
		return
	}
	key := calendar.Key(eventID)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), calendar.ContentType); err != nil {
		s.logger.Error("Event service: failed to upload calendar",
			"event_id", eventID,
			"key", key,
			"error", err.Error())
		return
	}
	s.logger.Info("Event service: calendar stored",
		"event_id", eventID,
		"key", key)
}

func (s *Event) renderCalendar(ctx context.Context, event model.Event) ([]byte, error) {
	var slot model.Timeslot
	var found bool
	for _, t := range event.Timeslots {
		if t.Finalized {
			slot, found = t, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("event %s has no finalized timeslot", event.ID)
	}

	organizer, err := s.userStore.GetByID(ctx, event.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	attendees, err := s.userStore.GetByIDs(ctx, event.ParticipantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendees: %w", err)
	}

	return s.renderer.Render(event, slot, organizer, attendees)
}

func (s *Event) getUser(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrUserNotFound(id)
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Event) getEvent(ctx context.Context, id uuid.UUID) (model.Event, error) {
	event, err := s.eventStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Event{}, apierrors.NewErrEventNotFound(id)
		}
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// lockEvent loads the event and holds its row lock until the transaction ends.
func (s *Event) lockEvent(ctx context.Context, id uuid.UUID) (model.Event, error) {
	event, err := s.eventStore.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Event{}, apierrors.NewErrEventNotFound(id)
		}
		return model.Event{}, fmt.Errorf("failed to lock event: %w", err)
	}
	return event, nil
}

func (s *Event) reload(ctx context.Context, id uuid.UUID) (model.Event, error) {
	event, err := s.eventStore.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to reload event: %w", err)
	}
	return event, nil
}

// reject logs a failed operation and returns err. Client errors are logged
// as warnings, everything else as errors.
func (s *Event) reject(op string, err error, args ...any) error {
	args = append(args, "error", err.Error())
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn("Event service: "+op+" rejected", args...)
	} else {
		s.logger.Error("Event service: "+op+" failed", args...)
	}
	return err
}
