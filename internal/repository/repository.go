// Package repository implements persistence for events, reservations,
// user profiles and survey responses.
//
// All writes that touch an event's reserved-seat counter go through
// Store.RunInTx so the capacity check and the record write commit together.
// Two implementations exist: PostgresStore (pgx, no ORM) and MemoryStore.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrTxConflict is returned when a transaction kept hitting write conflicts
// and ran out of retries.
var ErrTxConflict = errors.New("transaction conflict, retries exhausted")

// TxFunc is the body of an atomic unit of work. It may run more than once,
// so it must not have effects outside tx.
type TxFunc func(ctx context.Context, tx Tx) error

// Tx is the read/write set available inside a transaction.
type Tx interface {
	// EventForUpdate reads an event and holds it against concurrent
	// writers until the transaction ends.
	EventForUpdate(ctx context.Context, eventID string) (*model.Event, error)
	// AdjustTotalReserved adds delta to the event counter, flooring at zero.
	AdjustTotalReserved(ctx context.Context, eventID string, delta int) error

	Reservation(ctx context.Context, key string) (*model.Reservation, error)
	PutReservation(ctx context.Context, r *model.Reservation) error
	DeleteReservation(ctx context.Context, key string) error

	Profile(ctx context.Context, userID string) (*model.UserProfile, error)
	// ArchiveProfile copies the profile into the archive and deletes it.
	ArchiveProfile(ctx context.Context, userID string, at time.Time) error
}

// Store is the storage collaborator used by the service layer.
type Store interface {
	// RunInTx runs fn atomically. Conflicting concurrent transactions are
	// retried; ErrTxConflict is returned once retries are exhausted.
	RunInTx(ctx context.Context, fn TxFunc) error

	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// ListEvents returns events dated on or after fromDate, newest first.
	// An empty fromDate lists every event.
	ListEvents(ctx context.Context, fromDate string) ([]model.Event, error)

	GetReservation(ctx context.Context, key string) (*model.Reservation, error)
	// ListReservationsByUser returns the user's reservations, most recently
	// updated first.
	ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)

	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	// UpsertProfile never changes the membership of an existing profile.
	UpsertProfile(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error)
	SetMembership(ctx context.Context, userID string, isMember bool, at time.Time) (*model.UserProfile, error)

	// UpsertSurveyResponse inserts or replaces the response with the same ID,
	// keeping the stored CreatedAt of an existing row.
	UpsertSurveyResponse(ctx context.Context, r *model.SurveyResponse) (*model.SurveyResponse, error)
	// InsertSurveyResponse always creates a new row.
	InsertSurveyResponse(ctx context.Context, r *model.SurveyResponse) error
}
