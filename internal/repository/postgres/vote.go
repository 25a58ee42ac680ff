package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/eventpoll-server/internal/model"
)

var _ model.VoteStore = (*VoteRepository)(nil)

const voteColumns = `id, user_id, timeslot_id, created_at`

type VoteRepository struct {
	db *Connection
}

func NewVoteRepository(db *Connection) *VoteRepository {
	return &VoteRepository{db: db}
}

func scanVote(row pgx.Row) (model.Vote, error) {
	var v model.Vote
	err := row.Scan(&v.ID, &v.UserID, &v.TimeslotID, &v.CreatedAt)
	v.CreatedAt = v.CreatedAt.UTC()
	return v, err
}

func collectVotes(rows pgx.Rows) ([]model.Vote, error) {
	defer rows.Close()

	votes := []model.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

func (r *VoteRepository) Create(ctx context.Context, vote model.Vote) (bool, error) {
	const query = `INSERT INTO votes (id, user_id, timeslot_id, created_at) VALUES ($1, $2, $3, $4)
				   ON CONFLICT (user_id, timeslot_id) DO NOTHING`

	tag, err := r.db.querier(ctx).Exec(ctx, query, vote.ID, vote.UserID, vote.TimeslotID, vote.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create vote: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *VoteRepository) GetByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (model.Vote, error) {
	const query = `SELECT ` + voteColumns + ` FROM votes WHERE user_id = $1 AND timeslot_id = $2`

	v, err := scanVote(r.db.querier(ctx).QueryRow(ctx, query, userID, timeslotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Vote{}, model.ErrNotFound
		}
		return model.Vote{}, fmt.Errorf("failed to get vote: %w", err)
	}
	return v, nil
}

func (r *VoteRepository) GetByTimeslot(ctx context.Context, timeslotID uuid.UUID) ([]model.Vote, error) {
	const query = `SELECT ` + voteColumns + ` FROM votes WHERE timeslot_id = $1 ORDER BY created_at, id`

	rows, err := r.db.querier(ctx).Query(ctx, query, timeslotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes by timeslot: %w", err)
	}
	return collectVotes(rows)
}

func (r *VoteRepository) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Vote, error) {
	const query = `SELECT ` + voteColumns + ` FROM votes WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes by user: %w", err)
	}
	return collectVotes(rows)
}

func (r *VoteRepository) DeleteByUserAndTimeslot(ctx context.Context, userID, timeslotID uuid.UUID) (int64, error) {
	const query = `DELETE FROM votes WHERE user_id = $1 AND timeslot_id = $2`

	tag, err := r.db.querier(ctx).Exec(ctx, query, userID, timeslotID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vote: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *VoteRepository) DeleteByTimeslot(ctx context.Context, timeslotID uuid.UUID) (int64, error) {
	const query = `DELETE FROM votes WHERE timeslot_id = $1`

	tag, err := r.db.querier(ctx).Exec(ctx, query, timeslotID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes by timeslot: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUserAndEvent removes every vote the user cast on the event's timeslots.
func (r *VoteRepository) DeleteByUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (int64, error) {
	const query = `DELETE FROM votes v USING timeslots t
				   WHERE v.timeslot_id = t.id AND v.user_id = $1 AND t.event_id = $2`

	tag, err := r.db.querier(ctx).Exec(ctx, query, userID, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes by event: %w", err)
	}
	return tag.RowsAffected(), nil
}
