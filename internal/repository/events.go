package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, title, date, venue, ticket_stock, total_reserved, is_accept_reserve,
	accept_start_date, accept_end_date, max_companions, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Venue, &e.TicketStock, &e.TotalReserved,
		&e.IsAcceptReserve, &e.AcceptStartDate, &e.AcceptEndDate, &e.MaxCompanions, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts a new event. The caller assigns ID and CreatedAt.
func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Date, e.Venue, e.TicketStock, e.TotalReserved, e.IsAcceptReserve,
		e.AcceptStartDate, e.AcceptEndDate, e.MaxCompanions, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns events on or after fromDate ordered by date descending.
func (s *PostgresStore) ListEvents(ctx context.Context, fromDate string) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE $1 = '' OR date >= $1
		 ORDER BY date DESC, created_at DESC`,
		fromDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetEvent returns a single event or ErrNotFound.
func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// EventForUpdate acquires a row-level exclusive lock on the event.
//
// Any other transaction that attempts the same SELECT … FOR UPDATE on this
// row blocks until we commit or roll back, so only one writer at a time
// reads-then-writes total_reserved.
func (t *pgTx) EventForUpdate(ctx context.Context, eventID string) (*model.Event, error) {
	e, err := scanEvent(t.tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return e, nil
}

// AdjustTotalReserved changes the counter in the same transaction.
func (t *pgTx) AdjustTotalReserved(ctx context.Context, eventID string, delta int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE events SET total_reserved = GREATEST(total_reserved + $2, 0) WHERE id = $1`,
		eventID, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust total_reserved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
