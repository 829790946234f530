package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink stores entries in the audit_logs table.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink constructs a PostgresSink.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// Write inserts the entry. It runs outside the operation's transaction so a
// rolled-back operation is still recorded.
func (s *PostgresSink) Write(ctx context.Context, e Entry) error {
	var detail *string
	if e.ErrorDetail != "" {
		detail = &e.ErrorDetail
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, operation_id, action, status, error_detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.OperationID, e.Action, e.Status, detail, e.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
