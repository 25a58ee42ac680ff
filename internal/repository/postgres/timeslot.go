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

var _ model.TimeslotStore = (*TimeslotRepository)(nil)

const timeslotColumns = `id, event_id, proposer_id, start_time, end_time, finalized, created_at`

type TimeslotRepository struct {
	db *Connection
}

func NewTimeslotRepository(db *Connection) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

func scanTimeslot(row pgx.Row) (model.Timeslot, error) {
	var t model.Timeslot
	err := row.Scan(&t.ID, &t.EventID, &t.ProposerID, &t.Start, &t.End, &t.Finalized, &t.CreatedAt)
	t.Start = t.Start.UTC()
	t.End = t.End.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, err
}

func collectTimeslots(rows pgx.Rows) ([]model.Timeslot, error) {
	defer rows.Close()

	slots := []model.Timeslot{}
	for rows.Next() {
		t, err := scanTimeslot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeslot: %w", err)
		}
		slots = append(slots, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeslots: %w", err)
	}
	return slots, nil
}

// Create inserts a timeslot. A range already proposed for the event yields
// model.ErrConflict, an empty range model.ErrInvalidRange.
func (r *TimeslotRepository) Create(ctx context.Context, timeslot model.Timeslot) (model.Timeslot, error) {
	query := `INSERT INTO timeslots (id, event_id, proposer_id, start_time, end_time, finalized, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + timeslotColumns

	saved, err := scanTimeslot(r.db.querier(ctx).QueryRow(ctx, query,
		timeslot.ID, timeslot.EventID, timeslot.ProposerID, timeslot.Start, timeslot.End,
		timeslot.Finalized, timeslot.CreatedAt,
	))
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return model.Timeslot{}, fmt.Errorf("timeslot range already proposed: %w", model.ErrConflict)
		case codeCheckViolation:
			return model.Timeslot{}, model.ErrInvalidRange
		}
		return model.Timeslot{}, fmt.Errorf("failed to create timeslot: %w", err)
	}
	saved.Votes = []model.Vote{}
	return saved, nil
}

func (r *TimeslotRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Timeslot, error) {
	query := `SELECT ` + timeslotColumns + ` FROM timeslots WHERE id = $1`
	q := r.db.querier(ctx)

	t, err := scanTimeslot(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Timeslot{}, model.ErrNotFound
		}
		return model.Timeslot{}, fmt.Errorf("failed to get timeslot by id: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT `+voteColumns+` FROM votes WHERE timeslot_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return model.Timeslot{}, fmt.Errorf("failed to get votes: %w", err)
	}
	if t.Votes, err = collectVotes(rows); err != nil {
		return model.Timeslot{}, err
	}
	return t, nil
}

func (r *TimeslotRepository) GetByEventAndRange(ctx context.Context, eventID uuid.UUID, start, end time.Time) (model.Timeslot, error) {
	query := `SELECT ` + timeslotColumns + ` FROM timeslots
			  WHERE event_id = $1 AND start_time = $2 AND end_time = $3`

	t, err := scanTimeslot(r.db.querier(ctx).QueryRow(ctx, query, eventID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Timeslot{}, model.ErrNotFound
		}
		return model.Timeslot{}, fmt.Errorf("failed to get timeslot by range: %w", err)
	}
	return t, nil
}

func (r *TimeslotRepository) GetByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) ([]model.Timeslot, error) {
	query := `SELECT ` + timeslotColumns + ` FROM timeslots
			  WHERE proposer_id = $1 AND event_id = $2 ORDER BY created_at, id`

	rows, err := r.db.querier(ctx).Query(ctx, query, proposerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeslots by proposer: %w", err)
	}
	return collectTimeslots(rows)
}

// DeleteByProposerAndEvent removes the proposer's timeslots of the event.
// Their votes must be deleted first.
func (r *TimeslotRepository) DeleteByProposerAndEvent(ctx context.Context, proposerID, eventID uuid.UUID) (int64, error) {
	const query = `DELETE FROM timeslots WHERE proposer_id = $1 AND event_id = $2`

	tag, err := r.db.querier(ctx).Exec(ctx, query, proposerID, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete timeslots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TimeslotRepository) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE timeslots SET finalized = TRUE WHERE id = $1`

	tag, err := r.db.querier(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to finalize timeslot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
