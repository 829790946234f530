package service

import (
	"testing"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateGeneral(t *testing.T) {
	p, err := Aggregate(model.ReservationInput{
		Kind:               model.KindGeneral,
		RepresentativeName: "  Sato  ",
		Companions:         []string{"Ito", "", "   ", "Kato"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.KindGeneral, p.Kind)
	assert.Equal(t, "Sato", p.General.RepresentativeName)
	assert.Equal(t, []string{"Ito", "Kato"}, p.General.Companions)
	assert.Equal(t, 3, p.Headcount)
	assert.Nil(t, p.Groups)
}

func TestAggregateGeneralAloneCountsRepresentative(t *testing.T) {
	p, err := Aggregate(model.ReservationInput{Kind: model.KindGeneral, RepresentativeName: "Sato"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Headcount)
	assert.Empty(t, p.General.Companions)
}

func TestAggregateGeneralRequiresRepresentative(t *testing.T) {
	_, err := Aggregate(model.ReservationInput{Kind: model.KindGeneral, Companions: []string{"Ito"}})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "representativeName", ve.Field)
}

func TestAggregateInvited(t *testing.T) {
	p, err := Aggregate(model.ReservationInput{
		Kind: model.KindInvited,
		Groups: []model.GroupInput{
			{GroupName: "Family", Companions: []string{"Mom", "", "Dad"}, ReservationNumber: "1234-1"},
			{GroupName: "", Companions: []string{"", ""}},
			{GroupName: "", Companions: []string{"Friend"}},
			{GroupName: "Placeholder", Companions: []string{""}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, p.Headcount, "member is not counted, only named guests")
	require.Len(t, p.Groups, 3)
	assert.Equal(t, "Family", p.Groups[0].GroupName)
	assert.Equal(t, []string{"Mom", "Dad"}, p.Groups[0].Companions)
	assert.Equal(t, "1234-1", p.Groups[0].ReservationNumber)
	assert.Equal(t, UnnamedGroup, p.Groups[1].GroupName)
	assert.Equal(t, []string{"Friend"}, p.Groups[1].Companions)
	assert.Equal(t, "Placeholder", p.Groups[2].GroupName)
	assert.Empty(t, p.Groups[2].Companions)
	assert.Equal(t, 2, p.MaxCompanionsPerEntry())
}

func TestAggregateZeroHeadcount(t *testing.T) {
	tests := []struct {
		name string
		in   model.ReservationInput
	}{
		{"no groups", model.ReservationInput{Kind: model.KindInvited}},
		{"only blank entries", model.ReservationInput{Kind: model.KindInvited, Groups: []model.GroupInput{
			{GroupName: " ", Companions: []string{"", " "}},
		}}},
		{"named placeholder only", model.ReservationInput{Kind: model.KindInvited, Groups: []model.GroupInput{
			{GroupName: "Later"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.in)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}

func TestAggregateUnknownKind(t *testing.T) {
	_, err := Aggregate(model.ReservationInput{Kind: "vip", RepresentativeName: "x"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "kind", ve.Field)
}
