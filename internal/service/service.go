// Package service implements the reservation business logic: validation,
// the capacity-checked reservation transaction, cancellation, account
// withdrawal and survey submission.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const dateLayout = "2006-01-02"

var tracer = otel.Tracer("github.com/Shivanand-hulikatti/live-ticket-reserve/internal/service")

// Option customises a service.
type Option func(*base)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLocation sets the time zone used to decide today's date.
func WithLocation(loc *time.Location) Option {
	return func(b *base) { b.loc = loc }
}

// WithNumberSource replaces the reservation number generator.
func WithNumberSource(fn NumberSource) Option {
	return func(b *base) { b.mint = fn }
}

// WithIDSource replaces the generator of new record IDs.
func WithIDSource(fn func() string) Option {
	return func(b *base) { b.newID = fn }
}

// base holds the collaborators shared by every service.
type base struct {
	store  repository.Store
	audit  *audit.Recorder
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
	mint   NumberSource
	newID  func() string
}

func newBase(store repository.Store, rec *audit.Recorder, logger *slog.Logger, opts []Option) base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := base{
		store:  store,
		audit:  rec,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
		mint:   RandomNumber,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Today returns the current date in the configured time zone.
func (b *base) Today() string {
	return b.now().In(b.loc).Format(dateLayout)
}

// finish records the outcome on the span, the log and the audit trail.
func (b *base) finish(ctx context.Context, span trace.Span, operationID, action string, err error) {
	defer span.End()
	b.audit.Record(ctx, operationID, action, err)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	b.logger.Warn("operation failed", "operation_id", operationID, "action", action, "error", err)
}

// EventService exposes the read side of events plus the administrative create.
type EventService struct {
	base
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, logger *slog.Logger, opts ...Option) *EventService {
	return &EventService{base: newBase(store, nil, logger, opts)}
}

// CreateEvent validates the request and stores a new event.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, invalid("title", "event title is required")
	}
	if req.TicketStock < 0 {
		return nil, invalid("ticketStock", "must not be negative")
	}
	if req.TicketStock > 100_000 {
		return nil, invalid("ticketStock", "cannot exceed 100,000")
	}
	if req.MaxCompanions < 0 {
		return nil, invalid("maxCompanions", "must not be negative")
	}
	for field, d := range map[string]string{"date": req.Date, "acceptStartDate": req.AcceptStartDate, "acceptEndDate": req.AcceptEndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, invalid(field, "must be a YYYY-MM-DD date")
		}
	}
	if req.AcceptStartDate != "" && req.AcceptEndDate != "" && req.AcceptEndDate < req.AcceptStartDate {
		return nil, invalid("acceptEndDate", "must not be before acceptStartDate")
	}

	event := &model.Event{
		ID:              s.newID(),
		Title:           req.Title,
		Date:            req.Date,
		Venue:           strings.TrimSpace(req.Venue),
		TicketStock:     req.TicketStock,
		IsAcceptReserve: req.IsAcceptReserve,
		AcceptStartDate: req.AcceptStartDate,
		AcceptEndDate:   req.AcceptEndDate,
		MaxCompanions:   req.MaxCompanions,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", event.ID, "ticket_stock", event.TicketStock)
	return event, nil
}

// ListUpcomingEvents returns events dated from today onward. An explicit
// fromDate overrides today.
func (s *EventService) ListUpcomingEvents(ctx context.Context, fromDate string) ([]model.Event, error) {
	if fromDate == "" {
		fromDate = s.Today()
	} else if _, err := time.Parse(dateLayout, fromDate); err != nil {
		return nil, invalid("from", "must be a YYYY-MM-DD date")
	}
	return s.store.ListEvents(ctx, fromDate)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, invalid("id", "event id is required")
	}
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
