package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.EventStore = (*EventRepository)(nil)

const eventColumns = `id, title, description, required_votes, finalized, finalized_at, creator_id, created_at, updated_at`

// EventRepository stores events and their participants. Reads return the
// whole aggregate with timeslots and votes.
type EventRepository struct {
	db *Connection
}

func NewEventRepository(db *Connection) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.RequiredVotes, &e.Finalized, &e.FinalizedAt,
		&e.CreatorID, &e.CreatedAt, &e.UpdatedAt,
	)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.FinalizedAt != nil {
		at := e.FinalizedAt.UTC()
		e.FinalizedAt = &at
	}
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, event model.Event) (model.Event, error) {
	query := `INSERT INTO events (id, title, description, required_votes, finalized, finalized_at, creator_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + eventColumns

	saved, err := scanEvent(r.db.querier(ctx).QueryRow(ctx, query,
		event.ID, event.Title, event.Description, event.RequiredVotes, event.Finalized, event.FinalizedAt,
		event.CreatorID, event.CreatedAt, event.UpdatedAt,
	))
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return saved, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Event, error) {
	return r.load(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (r *EventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (model.Event, error) {
	return r.load(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *EventRepository) load(ctx context.Context, query string, id uuid.UUID) (model.Event, error) {
	q := r.db.querier(ctx)

	event, err := scanEvent(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, model.ErrNotFound
		}
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}

	if event.ParticipantIDs, err = r.participantIDs(ctx, q, id); err != nil {
		return model.Event{}, err
	}
	if event.Timeslots, err = r.timeslots(ctx, q, id); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) participantIDs(ctx context.Context, q querier, eventID uuid.UUID) ([]uuid.UUID, error) {
	const query = `SELECT user_id FROM event_participants WHERE event_id = $1 ORDER BY created_at, user_id`

	rows, err := q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants: %w", err)
	}
	return ids, nil
}

func (r *EventRepository) timeslots(ctx context.Context, q querier, eventID uuid.UUID) ([]model.Timeslot, error) {
	const slotsQuery = `SELECT ` + timeslotColumns + ` FROM timeslots WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := q.Query(ctx, slotsQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeslots: %w", err)
	}
	slots, err := collectTimeslots(rows)
	if err != nil {
		return nil, err
	}

	const votesQuery = `SELECT v.id, v.user_id, v.timeslot_id, v.created_at
						FROM votes v JOIN timeslots t ON t.id = v.timeslot_id
						WHERE t.event_id = $1 ORDER BY v.created_at, v.id`

	rows, err = q.Query(ctx, votesQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	votes, err := collectVotes(rows)
	if err != nil {
		return nil, err
	}

	index := make(map[uuid.UUID]int, len(slots))
	for i := range slots {
		slots[i].Votes = []model.Vote{}
		index[slots[i].ID] = i
	}
	for _, v := range votes {
		if i, ok := index[v.TimeslotID]; ok {
			slots[i].Votes = append(slots[i].Votes, v)
		}
	}
	return slots, nil
}

func (r *EventRepository) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	const query = `SELECT event_id FROM event_participants WHERE user_id = $1`

	rows, err := r.db.querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events by participant: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan event ids: %w", err)
	}

	events := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		event, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	model.SortEvents(events)
	return events, nil
}

func (r *EventRepository) MarkFinalized(ctx context.Context, id uuid.UUID, at time.Time) error {
	const query = `UPDATE events SET finalized = TRUE, finalized_at = $2, updated_at = $2 WHERE id = $1`

	tag, err := r.db.querier(ctx).Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to finalize event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	const query = `INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)
				   ON CONFLICT (event_id, user_id) DO NOTHING`

	if _, err := r.db.querier(ctx).Exec(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	const query = `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`

	if _, err := r.db.querier(ctx).Exec(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return nil
}
