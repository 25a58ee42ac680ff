package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/eventpoll-server/internal/apierrors"
	"github.com/dtroode/eventpoll-server/internal/calendar"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
)

// EventService defines the scheduling operations exposed over HTTP.
type EventService interface {
	CreateEvent(ctx context.Context, params model.CreateEventParams) (model.EventView, error)
	InviteToEvent(ctx context.Context, senderID, eventID, inviteeID uuid.UUID) (model.EventView, error)
	InviteByEmail(ctx context.Context, senderID, eventID uuid.UUID, email string) (model.EventView, error)
	DeclineEvent(ctx context.Context, eventID, userID uuid.UUID) (string, error)
	ProposeTimeslot(ctx context.Context, eventID, userID uuid.UUID, start, end time.Time) (model.EventView, error)
	Vote(ctx context.Context, userID, eventID, timeslotID uuid.UUID, remove bool) (model.EventView, error)
	GetVotes(ctx context.Context, userID, eventID uuid.UUID, timeslotID *uuid.UUID) ([]model.TimeslotView, error)
	FinalizeEvent(ctx context.Context, userID, eventID uuid.UUID, force bool) (model.EventView, error)
	EventStatus(ctx context.Context, eventID uuid.UUID) (model.EventStatus, error)
	GetEvents(ctx context.Context, userID uuid.UUID) ([]model.EventView, error)
	GetEvent(ctx context.Context, userID, eventID uuid.UUID) (model.EventView, error)
	GetCalendar(ctx context.Context, userID, eventID uuid.UUID) ([]byte, error)
}

// TimeParser converts client timestamps to UTC.
type TimeParser interface {
	ParseUTC(s string) (time.Time, error)
}

// Event handles HTTP endpoints for events, timeslots and votes.
type Event struct {
	eventService   EventService
	contextManager model.ContextManager
	parser         TimeParser
	logger         *logger.Logger
}

// NewEvent creates a new Event handler.
func NewEvent(eventService EventService, contextManager model.ContextManager, parser TimeParser, logger *logger.Logger) *Event {
	return &Event{
		eventService:   eventService,
		contextManager: contextManager,
		parser:         parser,
		logger:         logger,
	}
}

func (h *Event) GetEvents(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	events, err := h.eventService.GetEvents(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Events retrieved", newEventResponses(events))
}

func (h *Event) CreateEvent(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("start_date and end_date are required"))
		return
	}
	start, end, err := h.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	h.logger.Debug("Event handler: processing create request",
		"user_id", userID)

	event, err := h.eventService.CreateEvent(c.Request.Context(), model.CreateEventParams{
		CreatorID:     userID,
		Title:         req.Title,
		Description:   req.Description,
		Start:         start,
		End:           end,
		RequiredVotes: req.RequiredVotes,
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Event created", newEventResponse(event))
}

func (h *Event) GetEvent(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	event, err := h.eventService.GetEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Event retrieved", newEventResponse(event))
}

// EventStatus answers 404 for unknown events and otherwise reports open or finalized.
func (h *Event) EventStatus(c *gin.Context) {
	eventID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.eventService.EventStatus(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if status == model.StatusNotFound {
		handleError(c, h.logger, apierrors.NewErrEventNotFound(eventID))
		return
	}

	respond(c, http.StatusOK, "Event status retrieved", statusResponse{ID: eventID, Status: status})
}

// Invite accepts either user_id or email.
func (h *Event) Invite(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("invalid request body"))
		return
	}

	var (
		event model.EventView
		err   error
	)
	switch {
	case req.UserID != "":
		inviteeID, parseErr := uuid.Parse(req.UserID)
		if parseErr != nil {
			handleError(c, h.logger, apierrors.NewErrInvalidArgument("invalid user_id"))
			return
		}
		event, err = h.eventService.InviteToEvent(c.Request.Context(), userID, eventID, inviteeID)
	case strings.TrimSpace(req.Email) != "":
		event, err = h.eventService.InviteByEmail(c.Request.Context(), userID, eventID, req.Email)
	default:
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("user_id or email is required"))
		return
	}
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "User invited", newEventResponse(event))
}

func (h *Event) Decline(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	msg, err := h.eventService.DeclineEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, msg, nil)
}

func (h *Event) ProposeTimeslot(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	var req timeslotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("start_time and end_time are required"))
		return
	}
	start, end, err := h.parseRange(req.StartTime, req.EndTime)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	event, err := h.eventService.ProposeTimeslot(c.Request.Context(), eventID, userID, start, end)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Timeslot proposed", newEventResponse(event))
}

func (h *Event) CastVote(c *gin.Context) {
	h.vote(c, false)
}

func (h *Event) RemoveVote(c *gin.Context) {
	h.vote(c, true)
}

func (h *Event) vote(c *gin.Context, remove bool) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}
	timeslotID, ok := h.pathID(c, "timeslotId")
	if !ok {
		return
	}

	event, err := h.eventService.Vote(c.Request.Context(), userID, eventID, timeslotID, remove)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	msg := "Vote cast"
	if remove {
		msg = "Vote removed"
	}
	respond(c, http.StatusOK, msg, newEventResponse(event))
}

func (h *Event) GetVotes(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	var timeslotID *uuid.UUID
	if raw := c.Query("timeslot_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			handleError(c, h.logger, apierrors.NewErrInvalidArgument("invalid timeslot_id"))
			return
		}
		timeslotID = &id
	}

	timeslots, err := h.eventService.GetVotes(c.Request.Context(), userID, eventID, timeslotID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Votes retrieved", newTimeslotResponses(timeslots))
}

func (h *Event) Finalize(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(c, h.logger, apierrors.NewErrInvalidArgument("invalid force flag"))
			return
		}
		force = parsed
	}

	event, err := h.eventService.FinalizeEvent(c.Request.Context(), userID, eventID, force)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Event finalized", newEventResponse(event))
}

func (h *Event) Calendar(c *gin.Context) {
	userID, eventID, ok := h.userAndEvent(c)
	if !ok {
		return
	}

	data, err := h.eventService.GetCalendar(c.Request.Context(), userID, eventID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+eventID.String()+`.ics"`)
	c.Data(http.StatusOK, calendar.ContentType, data)
}

func (h *Event) userID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleError(c, h.logger, apierrors.NewErrMissingAuthorizationToken())
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Event) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		handleError(c, h.logger, apierrors.NewErrInvalidArgument("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Event) userAndEvent(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.userID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	eventID, ok := h.pathID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, eventID, true
}

func (h *Event) parseRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := h.parser.ParseUTC(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, apierrors.NewErrInvalidArgument(err.Error())
	}
	end, err := h.parser.ParseUTC(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, apierrors.NewErrInvalidArgument(err.Error())
	}
	return start, end, nil
}
