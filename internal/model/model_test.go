package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCapacity(t *testing.T) {
	limited := Event{TicketStock: 10, TotalReserved: 7}
	assert.False(t, limited.Unlimited())
	assert.Equal(t, 3, limited.Remaining())
	assert.False(t, limited.IsSoldOut())

	full := Event{TicketStock: 10, TotalReserved: 10}
	assert.Zero(t, full.Remaining())
	assert.True(t, full.IsSoldOut())

	unlimited := Event{TotalReserved: 999}
	assert.True(t, unlimited.Unlimited())
	assert.Equal(t, -1, unlimited.Remaining())
	assert.False(t, unlimited.IsSoldOut())
}

func TestEventAcceptingOn(t *testing.T) {
	e := Event{IsAcceptReserve: true, AcceptStartDate: "2026-04-01", AcceptEndDate: "2026-04-30"}

	tests := []struct {
		today string
		want  bool
	}{
		{"2026-03-31", false},
		{"2026-04-01", true},
		{"2026-04-15", true},
		{"2026-04-30", true},
		{"2026-05-01", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.AcceptingOn(tt.today), tt.today)
	}

	open := Event{IsAcceptReserve: true}
	assert.True(t, open.AcceptingOn("2030-01-01"))

	e.IsAcceptReserve = false
	assert.False(t, e.AcceptingOn("2026-04-15"))
}

func TestReservationShape(t *testing.T) {
	r := &Reservation{Key: "ev1_u1"}
	assert.Error(t, r.CheckShape())

	r.SetInvited(InvitedParty{MemberName: "M", Groups: []Group{{GroupName: "A"}, {GroupName: "B"}}})
	assert.NoError(t, r.CheckShape())
	assert.Equal(t, KindInvited, r.Kind)

	g, ok := r.Group(2)
	assert.True(t, ok)
	assert.Equal(t, "B", g.GroupName)
	_, ok = r.Group(0)
	assert.False(t, ok)
	_, ok = r.Group(3)
	assert.False(t, ok)

	r.SetGeneral(GeneralParty{RepresentativeName: "R"})
	assert.NoError(t, r.CheckShape())
	assert.Nil(t, r.Invited)
	_, ok = r.Group(1)
	assert.False(t, ok)

	r.Invited = &InvitedParty{}
	assert.Error(t, r.CheckShape())
}

func TestReservationGroupByNumber(t *testing.T) {
	r := &Reservation{Key: "ev1_u1"}
	r.SetInvited(InvitedParty{Groups: []Group{
		{GroupName: "B", ReservationNumber: "1234-2"},
		{GroupName: "C", ReservationNumber: "1234-3"},
	}})

	g, ok := r.GroupByNumber("1234-3")
	assert.True(t, ok)
	assert.Equal(t, "C", g.GroupName)

	_, ok = r.GroupByNumber("1234-1")
	assert.False(t, ok)
	_, ok = r.GroupByNumber("")
	assert.False(t, ok)

	r.SetGeneral(GeneralParty{RepresentativeName: "R"})
	_, ok = r.GroupByNumber("1234-2")
	assert.False(t, ok)
}

func TestKindValid(t *testing.T) {
	assert.True(t, KindGeneral.Valid())
	assert.True(t, KindInvited.Valid())
	assert.False(t, Kind("vip").Valid())
}
