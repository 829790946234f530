package service

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/audit"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"github.com/stretchr/testify/require"
)

// testNow falls inside the acceptance window of every seeded event.
var testNow = time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)

type fixture struct {
	store        *repository.MemoryStore
	sink         *audit.MemorySink
	events       *EventService
	reservations *ReservationService
	accounts     *AccountService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	return newFixtureWithStore(t, store, store, opts...)
}

// newFixtureWithStore lets a test wrap the memory store while still
// inspecting it directly.
func newFixtureWithStore(t *testing.T, mem *repository.MemoryStore, store repository.Store, opts ...Option) *fixture {
	t.Helper()
	sink := &audit.MemorySink{}
	rec := audit.NewRecorder(nil, sink)

	defaults := []Option{
		WithClock(func() time.Time { return testNow }),
		WithNumberSource(func() string { return "1234" }),
	}
	opts = append(defaults, opts...)

	reservations := NewReservationService(store, rec, nil, opts...)
	return &fixture{
		store:        mem,
		sink:         sink,
		events:       NewEventService(store, nil, opts...),
		reservations: reservations,
		accounts:     NewAccountService(store, rec, nil, reservations, opts...),
	}
}

func (f *fixture) seedEvent(t *testing.T, id string, stock, reserved int) {
	t.Helper()
	require.NoError(t, f.store.CreateEvent(context.Background(), &model.Event{
		ID:              id,
		Title:           "Live " + id,
		Date:            "2026-06-15",
		Venue:           "Hall",
		TicketStock:     stock,
		TotalReserved:   reserved,
		IsAcceptReserve: true,
		AcceptStartDate: "2026-04-01",
		AcceptEndDate:   "2026-05-31",
		MaxCompanions:   10,
		CreatedAt:       testNow,
	}))
}

func (f *fixture) seedMember(t *testing.T, userID, name string) {
	t.Helper()
	_, err := f.store.UpsertProfile(context.Background(), &model.UserProfile{
		ID: userID, DisplayName: name, IsMember: true, CreatedAt: testNow,
	})
	require.NoError(t, err)
}

func (f *fixture) totalReserved(t *testing.T, eventID string) int {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return e.TotalReserved
}

// general builds a general reservation with the representative plus n companions.
func general(n int) model.ReservationInput {
	in := model.ReservationInput{Kind: model.KindGeneral, RepresentativeName: "Rep"}
	for i := range n {
		in.Companions = append(in.Companions, "Guest"+string(rune('A'+i)))
	}
	return in
}
