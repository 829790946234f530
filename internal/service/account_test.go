package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore makes DeleteReservation fail for one key inside transactions.
type failingStore struct {
	*repository.MemoryStore
	failKey string
}

func (s *failingStore) RunInTx(ctx context.Context, fn repository.TxFunc) error {
	return s.MemoryStore.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, failingTx{Tx: tx, failKey: s.failKey})
	})
}

type failingTx struct {
	repository.Tx
	failKey string
}

func (t failingTx) DeleteReservation(ctx context.Context, key string) error {
	if key == t.failKey {
		return errors.New("storage unavailable")
	}
	return t.Tx.DeleteReservation(ctx, key)
}

func TestUpsertProfileKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.accounts.UpsertProfile(ctx, "u1", model.UpsertProfileRequest{DisplayName: " Aoi "})
	require.NoError(t, err)
	assert.Equal(t, "Aoi", first.DisplayName)
	assert.False(t, first.IsMember)

	f.accounts.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := f.accounts.UpsertProfile(ctx, "u1", model.UpsertProfileRequest{DisplayName: "Aoi Sato"})
	require.NoError(t, err)
	assert.Equal(t, "Aoi Sato", second.DisplayName)
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

func TestSetMembership(t *testing.T) {
	f := newFixture(t)
	f.seedEvent(t, "ev1", 10, 0)
	ctx := context.Background()
	invited := model.ReservationInput{Kind: model.KindInvited, Groups: []model.GroupInput{{GroupName: "Band", Companions: []string{"A"}}}}

	_, err := f.accounts.UpsertProfile(ctx, "u1", model.UpsertProfileRequest{DisplayName: "Aoi"})
	require.NoError(t, err)
	_, err = f.reservations.SubmitReservation(ctx, "ev1", "u1", invited)
	require.ErrorIs(t, err, ErrNotMember)

	p, err := f.accounts.SetMembership(ctx, "u1", true)
	require.NoError(t, err)
	assert.True(t, p.IsMember)
	assert.Equal(t, "Aoi", p.DisplayName)

	// A later self-service edit leaves membership alone.
	_, err = f.accounts.UpsertProfile(ctx, "u1", model.UpsertProfileRequest{DisplayName: "Aoi S"})
	require.NoError(t, err)
	got, err := f.accounts.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsMember)

	res, err := f.reservations.SubmitReservation(ctx, "ev1", "u1", invited)
	require.NoError(t, err)
	assert.Equal(t, "Aoi S", res.Reservation.Invited.MemberName)

	last := f.sink.Entries()[len(f.sink.Entries())-1]
	assert.Equal(t, audit.ActionReservationSubmit, last.Action)
	var membership int
	for _, e := range f.sink.Entries() {
		if e.Action == audit.ActionMembershipUpdate {
			membership++
			assert.Equal(t, "u1", e.OperationID)
		}
	}
	assert.Equal(t, 1, membership)

	_, err = f.accounts.SetMembership(ctx, " ", true)
	assert.True(t, IsValidation(err))
}

func TestSetMembershipCreatesProfile(t *testing.T) {
	f := newFixture(t)
	p, err := f.accounts.SetMembership(context.Background(), "u9", true)
	require.NoError(t, err)
	assert.Equal(t, "u9", p.ID)
	assert.Empty(t, p.DisplayName)
	assert.True(t, p.CreatedAt.Equal(testNow))
}

func TestWithdrawAccount(t *testing.T) {
	f := newFixture(t)
	f.seedEvent(t, "ev1", 10, 0)
	f.seedEvent(t, "ev2", 10, 0)
	f.seedMember(t, "u1", "Ren")
	ctx := context.Background()

	_, err := f.reservations.SubmitReservation(ctx, "ev1", "u1", general(1))
	require.NoError(t, err)
	_, err = f.reservations.SubmitReservation(ctx, "ev2", "u1", general(3))
	require.NoError(t, err)
	_, err = f.reservations.SubmitReservation(ctx, "ev1", "u2", general(0))
	require.NoError(t, err)

	res, err := f.accounts.WithdrawAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cancelled)
	assert.Empty(t, res.Failed)
	assert.True(t, res.ProfileArchived)

	assert.Equal(t, 1, f.totalReserved(t, "ev1"))
	assert.Zero(t, f.totalReserved(t, "ev2"))

	_, err = f.accounts.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	archives := f.store.Archives()
	require.Len(t, archives, 1)
	assert.Equal(t, "Ren", archives[0].Profile.DisplayName)
	assert.True(t, archives[0].ArchivedAt.Equal(testNow))

	last := f.sink.Entries()[len(f.sink.Entries())-1]
	assert.Equal(t, audit.ActionAccountWithdraw, last.Action)
	assert.Equal(t, "u1", last.OperationID)

	// Running it again finds nothing left to do.
	res, err = f.accounts.WithdrawAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, res.Cancelled)
	assert.False(t, res.ProfileArchived)
	assert.Len(t, f.store.Archives(), 1)
}

func TestWithdrawAccountContinuesPastFailures(t *testing.T) {
	mem := repository.NewMemoryStore()
	f := newFixtureWithStore(t, mem, &failingStore{MemoryStore: mem, failKey: "ev1_u1"})
	f.seedEvent(t, "ev1", 10, 0)
	f.seedEvent(t, "ev2", 10, 0)
	f.seedMember(t, "u1", "Ren")
	ctx := context.Background()

	_, err := f.reservations.SubmitReservation(ctx, "ev1", "u1", general(1))
	require.NoError(t, err)
	_, err = f.reservations.SubmitReservation(ctx, "ev2", "u1", general(1))
	require.NoError(t, err)

	res, err := f.accounts.WithdrawAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, []string{"ev1_u1"}, res.Failed)
	assert.True(t, res.ProfileArchived)

	// The failed cancellation rolled back as a whole.
	assert.Equal(t, 2, f.totalReserved(t, "ev1"))
	_, err = mem.GetReservation(ctx, "ev1_u1")
	assert.NoError(t, err)
	assert.Zero(t, f.totalReserved(t, "ev2"))
}

func TestWithdrawAccountRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.WithdrawAccount(context.Background(), "")
	assert.True(t, IsValidation(err))
}
