package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestRetryOnConflictRetriesSerializationFailures(t *testing.T) {
	calls := 0
	err := retryOnConflict(context.Background(), discard, 5, 0, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("commit transaction: %w", &pgconn.PgError{Code: pgSerializationFailure})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictGivesUp(t *testing.T) {
	calls := 0
	err := retryOnConflict(context.Background(), discard, 3, 0, func() error {
		calls++
		return &pgconn.PgError{Code: pgDeadlockDetected}
	})
	require.ErrorIs(t, err, ErrTxConflict)
	assert.Equal(t, 3, calls)
}

func TestRetryOnConflictStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := retryOnConflict(context.Background(), discard, 5, 0, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	calls = 0
	err = retryOnConflict(context.Background(), discard, 5, 0, func() error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})
	assert.False(t, errors.Is(err, ErrTxConflict))
	assert.Equal(t, 1, calls)
}

func TestRetryOnConflictHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryOnConflict(ctx, discard, 5, time.Hour, func() error {
		return &pgconn.PgError{Code: pgSerializationFailure}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetriesIgnoresInvalidValues(t *testing.T) {
	s := NewPostgresStore(nil, WithRetries(0, -time.Second), WithLogger(nil))
	assert.Equal(t, 5, s.maxRetries)
	assert.Equal(t, 20*time.Millisecond, s.backoff)
	assert.NotNil(t, s.logger)

	s = NewPostgresStore(nil, WithRetries(8, 0))
	assert.Equal(t, 8, s.maxRetries)
	assert.Zero(t, s.backoff)
}
