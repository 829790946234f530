package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMemberName is the invited-reservation member name used when the
// member's profile has no display name.
const DefaultMemberName = "Member"

// ReservationService owns every write to reservations and to the events'
// reserved-seat counters.
type ReservationService struct {
	base
}

// NewReservationService constructs a ReservationService with its dependencies.
func NewReservationService(store repository.Store, rec *audit.Recorder, logger *slog.Logger, opts ...Option) *ReservationService {
	return &ReservationService{base: newBase(store, rec, logger, opts)}
}

// ReservationResult is the committed outcome of a submission.
type ReservationResult struct {
	Reservation *model.Reservation `json:"reservation"`
	// Delta is the change applied to the event's reserved count.
	Delta         int `json:"delta"`
	TotalReserved int `json:"totalReserved"`
	TicketStock   int `json:"ticketStock"`
}

// SubmitReservation creates or edits the caller's reservation for an event.
//
// The event counter and the reservation record change together in one
// transaction. Only the difference between the new and the previous
// headcount is charged against the stock, so shrinking a reservation always
// succeeds, even on an event that is already full.
func (s *ReservationService) SubmitReservation(ctx context.Context, eventID, userID string, in model.ReservationInput) (res *ReservationResult, err error) {
	key := ReservationKey(eventID, userID)
	ctx, span := tracer.Start(ctx, "reservation.submit", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("reservation.key", key),
		attribute.String("reservation.kind", string(in.Kind)),
	))
	defer func() { s.finish(ctx, span, key, audit.ActionReservationSubmit, err) }()

	if eventID == "" || userID == "" {
		return nil, invalid("", "event id and user id are required")
	}
	party, err := Aggregate(in)
	if err != nil {
		return nil, err
	}
	today := s.Today()

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res = nil

		event, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("event %s: %w", eventID, err)
		}
		if !event.AcceptingOn(today) {
			return ErrReservationClosed
		}
		if n := party.MaxCompanionsPerEntry(); n > event.MaxCompanions {
			return invalid("companions", "at most %d companions allowed per representative or group, got %d", event.MaxCompanions, n)
		}

		var memberName string
		if party.Kind == model.KindInvited {
			if memberName, err = s.memberName(ctx, tx, userID); err != nil {
				return err
			}
		}

		prior, err := tx.Reservation(ctx, key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := s.now().UTC()
		r := &model.Reservation{
			Key:        key,
			EventID:    eventID,
			UserID:     userID,
			TotalCount: party.Headcount,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		priorCount, priorNumber := 0, ""
		var priorGroups []model.Group
		if prior != nil {
			priorCount = prior.TotalCount
			priorNumber = prior.ReservationNumber
			r.CreatedAt = prior.CreatedAt
			if prior.Invited != nil {
				priorGroups = prior.Invited.Groups
			}
		}

		delta := party.Headcount - priorCount
		if exceedsStock(event, delta) {
			return fmt.Errorf("%w: %d more requested, %d remaining", ErrCapacityExceeded, delta, event.Remaining())
		}

		r.ReservationNumber = BaseNumber(priorNumber, s.mint)
		switch party.Kind {
		case model.KindGeneral:
			r.SetGeneral(*party.General)
		case model.KindInvited:
			r.SetInvited(model.InvitedParty{
				MemberName: memberName,
				Groups:     AssignGroupNumbers(r.ReservationNumber, party.Groups, priorGroups),
			})
		}

		if err := tx.PutReservation(ctx, r); err != nil {
			return err
		}
		if delta != 0 {
			if err := tx.AdjustTotalReserved(ctx, eventID, delta); err != nil {
				return err
			}
		}

		res = &ReservationResult{
			Reservation:   r,
			Delta:         delta,
			TotalReserved: event.TotalReserved + delta,
			TicketStock:   event.TicketStock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation committed",
		"reservation_key", key,
		"reservation_number", res.Reservation.ReservationNumber,
		"total_count", res.Reservation.TotalCount,
		"delta", res.Delta,
	)
	return res, nil
}

// exceedsStock reports whether adding delta seats overbooks a limited event.
// Reductions never do.
func exceedsStock(e *model.Event, delta int) bool {
	return !e.Unlimited() && delta > 0 && e.TotalReserved+delta > e.TicketStock
}

func (s *ReservationService) memberName(ctx context.Context, tx repository.Tx, userID string) (string, error) {
	profile, err := tx.Profile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", err
	}
	if !profile.IsMember {
		return "", ErrNotMember
	}
	if profile.DisplayName == "" {
		return DefaultMemberName, nil
	}
	return profile.DisplayName, nil
}

// CancelReservation deletes the caller's reservation and gives its seats
// back to the event. It returns false, without error, when there is nothing
// to cancel.
func (s *ReservationService) CancelReservation(ctx context.Context, eventID, userID string) (cancelled bool, err error) {
	key := ReservationKey(eventID, userID)
	ctx, span := tracer.Start(ctx, "reservation.cancel", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("reservation.key", key),
	))
	defer func() {
		if cancelled || err != nil {
			s.finish(ctx, span, key, audit.ActionReservationCancel, err)
			return
		}
		span.End()
	}()

	var released int
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cancelled, released = false, 0

		// Lock the counter first so a concurrent edit of the same
		// reservation cannot change TotalCount under us.
		eventFound := true
		if _, err := tx.EventForUpdate(ctx, eventID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			eventFound = false
		}

		r, err := tx.Reservation(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteReservation(ctx, key); err != nil {
			return err
		}
		// The event may already be gone; the reservation is still removed.
		if eventFound {
			if err := tx.AdjustTotalReserved(ctx, eventID, -r.TotalCount); err != nil {
				return err
			}
		}
		cancelled, released = true, r.TotalCount
		return nil
	})
	if err != nil {
		return false, err
	}
	if cancelled {
		s.logger.Info("reservation cancelled", "reservation_key", key, "released", released)
	}
	return cancelled, nil
}

// GetReservation returns the caller's reservation for an event.
func (s *ReservationService) GetReservation(ctx context.Context, eventID, userID string) (*model.Reservation, error) {
	return s.GetReservationByKey(ctx, ReservationKey(eventID, userID))
}

// GetReservationByKey returns a reservation by its record key.
func (s *ReservationService) GetReservationByKey(ctx context.Context, key string) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// ListReservations returns every reservation the user holds.
func (s *ReservationService) ListReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	return s.store.ListReservationsByUser(ctx, userID)
}
