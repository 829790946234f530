package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/jackc/pgx/v5"
)

// GetProfile returns a user profile or ErrNotFound.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return getProfile(s.db.QueryRow(ctx,
		`SELECT id, display_name, is_member, created_at FROM user_profiles WHERE id = $1`, userID))
}

// UpsertProfile creates the profile or updates its display name. An
// existing row keeps its membership.
func (s *PostgresStore) UpsertProfile(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	return getProfile(s.db.QueryRow(ctx,
		`INSERT INTO user_profiles (id, display_name, is_member, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = EXCLUDED.display_name
		 RETURNING id, display_name, is_member, created_at`,
		p.ID, p.DisplayName, p.IsMember, p.CreatedAt,
	))
}

// SetMembership grants or revokes membership, creating a bare profile when
// the user has none yet.
func (s *PostgresStore) SetMembership(ctx context.Context, userID string, isMember bool, at time.Time) (*model.UserProfile, error) {
	return getProfile(s.db.QueryRow(ctx,
		`INSERT INTO user_profiles (id, is_member, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
		   is_member = EXCLUDED.is_member
		 RETURNING id, display_name, is_member, created_at`,
		userID, isMember, at,
	))
}

func getProfile(row pgx.Row) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := row.Scan(&p.ID, &p.DisplayName, &p.IsMember, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Profile reads a profile inside the transaction.
func (t *pgTx) Profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return getProfile(t.tx.QueryRow(ctx,
		`SELECT id, display_name, is_member, created_at FROM user_profiles WHERE id = $1`, userID))
}

// ArchiveProfile moves the profile row into user_archives.
func (t *pgTx) ArchiveProfile(ctx context.Context, userID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`WITH removed AS (
		   DELETE FROM user_profiles WHERE id = $1
		   RETURNING id, display_name, is_member, created_at
		 )
		 INSERT INTO user_archives (user_id, display_name, is_member, created_at, archived_at)
		 SELECT id, display_name, is_member, created_at, $2 FROM removed`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("archive profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
