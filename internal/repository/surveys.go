package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
)

// UpsertSurveyResponse merges an authenticated user's answers into the row
// keyed by r.ID. created_at is never overwritten.
func (s *PostgresStore) UpsertSurveyResponse(ctx context.Context, r *model.SurveyResponse) (*model.SurveyResponse, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	out := *r
	err = s.db.QueryRow(ctx,
		`INSERT INTO survey_responses (id, event_id, event_title, user_id, answers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   event_title = EXCLUDED.event_title,
		   answers     = EXCLUDED.answers,
		   updated_at  = EXCLUDED.updated_at
		 RETURNING created_at`,
		r.ID, r.EventID, r.EventTitle, r.UserID, answers, r.CreatedAt, r.UpdatedAt,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert survey response: %w", err)
	}
	return &out, nil
}

// InsertSurveyResponse stores a new response.
func (s *PostgresStore) InsertSurveyResponse(ctx context.Context, r *model.SurveyResponse) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO survey_responses (id, event_id, event_title, user_id, answers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.EventID, r.EventTitle, r.UserID, answers, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert survey response: %w", err)
	}
	return nil
}
