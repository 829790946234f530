package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `key, event_id, user_id, kind, total_count, reservation_number,
	representative_name, companions, member_name, guest_groups, created_at, updated_at`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		res                    model.Reservation
		kind                   string
		repName, memberName    *string
		companions, groupsJSON []byte
	)
	err := row.Scan(&res.Key, &res.EventID, &res.UserID, &kind, &res.TotalCount, &res.ReservationNumber,
		&repName, &companions, &memberName, &groupsJSON, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	switch model.Kind(kind) {
	case model.KindGeneral:
		p := model.GeneralParty{Companions: []string{}}
		if repName != nil {
			p.RepresentativeName = *repName
		}
		if len(companions) > 0 {
			if err := json.Unmarshal(companions, &p.Companions); err != nil {
				return nil, fmt.Errorf("decode companions: %w", err)
			}
		}
		res.SetGeneral(p)
	case model.KindInvited:
		p := model.InvitedParty{Groups: []model.Group{}}
		if memberName != nil {
			p.MemberName = *memberName
		}
		if len(groupsJSON) > 0 {
			if err := json.Unmarshal(groupsJSON, &p.Groups); err != nil {
				return nil, fmt.Errorf("decode groups: %w", err)
			}
		}
		res.SetInvited(p)
	default:
		return nil, fmt.Errorf("reservation %s: unknown kind %q", res.Key, kind)
	}
	return &res, nil
}

// Reservation reads a reservation inside the transaction.
func (t *pgTx) Reservation(ctx context.Context, key string) (*model.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// PutReservation inserts the reservation or replaces every column of the
// existing row except created_at. Payload columns of the unused kind are
// written as NULL so a kind switch leaves nothing stale behind.
func (t *pgTx) PutReservation(ctx context.Context, r *model.Reservation) error {
	if err := r.CheckShape(); err != nil {
		return err
	}

	var (
		repName, memberName    *string
		companions, groupsJSON []byte
		err                    error
	)
	switch r.Kind {
	case model.KindGeneral:
		repName = &r.General.RepresentativeName
		if companions, err = json.Marshal(nonNil(r.General.Companions)); err != nil {
			return fmt.Errorf("encode companions: %w", err)
		}
	case model.KindInvited:
		memberName = &r.Invited.MemberName
		if groupsJSON, err = json.Marshal(r.Invited.Groups); err != nil {
			return fmt.Errorf("encode groups: %w", err)
		}
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO reservations (`+reservationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (key) DO UPDATE SET
		   kind                = EXCLUDED.kind,
		   total_count         = EXCLUDED.total_count,
		   reservation_number  = EXCLUDED.reservation_number,
		   representative_name = EXCLUDED.representative_name,
		   companions          = EXCLUDED.companions,
		   member_name         = EXCLUDED.member_name,
		   guest_groups        = EXCLUDED.guest_groups,
		   updated_at          = EXCLUDED.updated_at`,
		r.Key, r.EventID, r.UserID, string(r.Kind), r.TotalCount, r.ReservationNumber,
		repName, companions, memberName, groupsJSON, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert reservation: %w", err)
	}
	return nil
}

// DeleteReservation removes a reservation. Deleting a missing row is not an error.
func (t *pgTx) DeleteReservation(ctx context.Context, key string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM reservations WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

// GetReservation returns a reservation or ErrNotFound.
func (s *PostgresStore) GetReservation(ctx context.Context, key string) (*model.Reservation, error) {
	r, err := scanReservation(s.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// ListReservationsByUser returns every reservation held by a user.
func (s *PostgresStore) ListReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
