package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes that mean "run the transaction again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	db         *pgxpool.Pool
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
}

// PostgresOption customises a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithRetries sets how many times a conflicting transaction is attempted
// and the base delay between attempts.
func WithRetries(max int, backoff time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if max > 0 {
			s.maxRetries = max
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:         db,
		logger:     slog.New(slog.DiscardHandler),
		maxRetries: 5,
		backoff:    20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn inside a READ COMMITTED transaction.
//
// Writers on the same event queue on the row lock EventForUpdate takes
// (SELECT ... FOR UPDATE) and read the committed counter once it is theirs.
// fn must lock the event before reading anything it will write back.
// Deadlocks and serialization failures are rolled back and fn is run again.
func (s *PostgresStore) RunInTx(ctx context.Context, fn TxFunc) error {
	return retryOnConflict(ctx, s.logger, s.maxRetries, s.backoff, func() error {
		return s.runOnce(ctx, fn)
	})
}

func (s *PostgresStore) runOnce(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// retryOnConflict calls attempt until it succeeds, fails with a
// non-retryable error, or maxAttempts is reached.
func retryOnConflict(ctx context.Context, logger *slog.Logger, maxAttempts int, backoff time.Duration, attempt func() error) error {
	for n := 1; ; n++ {
		err := attempt()
		if err == nil || !isRetryable(err) {
			return err
		}
		if n >= maxAttempts {
			return fmt.Errorf("%w: %d attempts: %v", ErrTxConflict, n, err)
		}
		logger.Warn("transaction conflict, retrying", "attempt", n, "error", err)

		// Jitter keeps a burst of losers from retrying in lockstep.
		delay := backoff * time.Duration(n)
		if backoff > 0 {
			delay += time.Duration(rand.Int64N(int64(backoff)))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// pgTx adapts a pgx.Tx to Tx.
type pgTx struct {
	tx pgx.Tx
}
