package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	db := &Connection{}

	assert.Equal(t, db, NewUserRepository(db).db)
	assert.Equal(t, db, NewEventRepository(db).db)
	assert.Equal(t, db, NewTimeslotRepository(db).db)
	assert.Equal(t, db, NewVoteRepository(db).db)
	assert.Equal(t, db, NewRefreshTokenRepository(db).db)
	assert.Equal(t, db, NewTxManager(db).db)
}

func TestPgErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: codeUniqueViolation}, want: codeUniqueViolation},
		{name: "wrapped check violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeCheckViolation}), want: codeCheckViolation},
		{name: "plain error", err: errors.New("boom"), want: ""},
		{name: "nil", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgErrorCode(tt.err))
		})
	}
}

func TestTxFromContext(t *testing.T) {
	_, ok := txFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), txKey{}, "not a tx")
	_, ok = txFromContext(ctx)
	assert.False(t, ok)
}

func TestConnection_PingWithoutPool(t *testing.T) {
	c := &Connection{}
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
