// Package audit records the outcome of every state-changing operation.
//
// An Entry is (operation id, action, status, error detail). The Recorder
// fans an entry out to any number of Sinks; a failing sink is logged and
// never turns a committed operation into a failed one.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Actions recorded by the service layer.
const (
	ActionReservationSubmit = "reservation.submit"
	ActionReservationCancel = "reservation.cancel"
	ActionAccountWithdraw   = "account.withdraw"
	ActionMembershipUpdate  = "account.membership"
	ActionSurveySubmit      = "survey.submit"
)

// Entry is one audit record.
type Entry struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operationId"`
	Action      string    `json:"action"`
	Status      string    `json:"status"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
	At          time.Time `json:"at"`
}

// Sink persists or forwards audit entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Recorder builds entries and hands them to its sinks.
type Recorder struct {
	sinks  []Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder constructs a Recorder. A nil logger discards sink failures.
func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{sinks: sinks, logger: logger, now: time.Now}
}

// Record writes the outcome of action on operationID. A nil opErr records
// success.
func (r *Recorder) Record(ctx context.Context, operationID, action string, opErr error) {
	if r == nil {
		return
	}
	e := Entry{
		ID:          uuid.NewString(),
		OperationID: operationID,
		Action:      action,
		Status:      StatusSuccess,
		At:          r.now().UTC(),
	}
	if opErr != nil {
		e.Status = StatusError
		e.ErrorDetail = opErr.Error()
	}
	for _, s := range r.sinks {
		if err := s.Write(ctx, e); err != nil {
			r.logger.Error("audit sink failed",
				"operation_id", operationID, "action", action, "error", err)
		}
	}
}

// LogSink writes entries to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Write logs the entry at info level, or warn for failures.
func (s LogSink) Write(ctx context.Context, e Entry) error {
	level := slog.LevelInfo
	if e.Status == StatusError {
		level = slog.LevelWarn
	}
	attrs := []any{"audit_id", e.ID, "operation_id", e.OperationID, "action", e.Action, "status", e.Status}
	if e.ErrorDetail != "" {
		attrs = append(attrs, "error_detail", e.ErrorDetail)
	}
	s.Logger.Log(ctx, level, "audit", attrs...)
	return nil
}

// MemorySink keeps entries in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// Write appends the entry.
func (s *MemorySink) Write(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of everything written so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
