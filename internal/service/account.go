package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AccountService manages user profiles and account withdrawal.
type AccountService struct {
	base
	reservations *ReservationService
}

// NewAccountService constructs an AccountService. Withdrawal cancels
// reservations through reservations.
func NewAccountService(store repository.Store, rec *audit.Recorder, logger *slog.Logger, reservations *ReservationService, opts ...Option) *AccountService {
	return &AccountService{base: newBase(store, rec, logger, opts), reservations: reservations}
}

// UpsertProfile creates or updates the user's profile. It never grants
// membership.
func (s *AccountService) UpsertProfile(ctx context.Context, userID string, req model.UpsertProfileRequest) (*model.UserProfile, error) {
	if userID == "" {
		return nil, invalid("", "user id is required")
	}
	p := &model.UserProfile{
		ID:          userID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		CreatedAt:   s.now().UTC(),
	}
	out, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return out, nil
}

// SetMembership grants or revokes membership for userID. Administrative.
func (s *AccountService) SetMembership(ctx context.Context, userID string, isMember bool) (p *model.UserProfile, err error) {
	ctx, span := tracer.Start(ctx, "account.membership", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Bool("user.member", isMember),
	))
	defer func() { s.finish(ctx, span, userID, audit.ActionMembershipUpdate, err) }()

	if strings.TrimSpace(userID) == "" {
		return nil, invalid("userId", "user id is required")
	}
	p, err = s.store.SetMembership(ctx, userID, isMember, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("set membership: %w", err)
	}
	s.logger.Info("membership updated", "user_id", userID, "is_member", isMember)
	return p, nil
}

// GetProfile returns the user's profile.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

// WithdrawResult summarises an account withdrawal.
type WithdrawResult struct {
	Cancelled       int      `json:"cancelled"`
	Failed          []string `json:"failed,omitempty"`
	ProfileArchived bool     `json:"profileArchived"`
}

// WithdrawAccount cancels every reservation the user holds, then archives
// and deletes the profile.
//
// Cancellations are best effort: one failing reservation is logged and
// reported in Failed without stopping the others. Calling it again on an
// already withdrawn account does nothing.
func (s *AccountService) WithdrawAccount(ctx context.Context, userID string) (res *WithdrawResult, err error) {
	ctx, span := tracer.Start(ctx, "account.withdraw", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer func() { s.finish(ctx, span, userID, audit.ActionAccountWithdraw, err) }()

	if userID == "" {
		return nil, invalid("", "user id is required")
	}

	held, err := s.store.ListReservationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	res = &WithdrawResult{}
	for _, r := range held {
		ok, cerr := s.reservations.CancelReservation(ctx, r.EventID, userID)
		if cerr != nil {
			s.logger.Error("withdrawal: cancel failed", "user_id", userID, "reservation_key", r.Key, "error", cerr)
			res.Failed = append(res.Failed, r.Key)
			continue
		}
		if ok {
			res.Cancelled++
		}
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		res.ProfileArchived = false
		err := tx.ArchiveProfile(ctx, userID, s.now().UTC())
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res.ProfileArchived = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive profile: %w", err)
	}

	s.logger.Info("account withdrawn",
		"user_id", userID,
		"cancelled", res.Cancelled,
		"failed", len(res.Failed),
		"profile_archived", res.ProfileArchived,
	)
	return res, nil
}
