package model

import (
	"fmt"
	"time"
)

// Kind discriminates the two reservation shapes.
type Kind string

const (
	// KindGeneral is one representative plus named companions, all counted.
	KindGeneral Kind = "general"
	// KindInvited is a member's guest list split into named groups.
	// The member is not counted against capacity.
	KindInvited Kind = "invited"
)

// Valid reports whether k is a known reservation kind.
func (k Kind) Valid() bool {
	return k == KindGeneral || k == KindInvited
}

// Reservation is the single record a user holds for an event.
//
// Exactly one of General or Invited is set, matching Kind.
type Reservation struct {
	Key               string        `json:"key"`
	EventID           string        `json:"eventId"`
	UserID            string        `json:"userId"`
	Kind              Kind          `json:"kind"`
	TotalCount        int           `json:"totalCount"`
	ReservationNumber string        `json:"reservationNumber"`
	General           *GeneralParty `json:"general,omitempty"`
	Invited           *InvitedParty `json:"invited,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// GeneralParty is the payload of a general reservation.
type GeneralParty struct {
	RepresentativeName string   `json:"representativeName"`
	Companions         []string `json:"companions"`
}

// InvitedParty is the payload of an invited reservation.
type InvitedParty struct {
	MemberName string  `json:"memberName"`
	Groups     []Group `json:"groups"`
}

// Group is one named party of guests inside an invited reservation.
// ReservationNumber is the group's own label, e.g. "1234-2".
type Group struct {
	GroupName         string   `json:"groupName"`
	Companions        []string `json:"companions"`
	ReservationNumber string   `json:"reservationNumber"`
}

// SetGeneral switches the reservation to the general shape and drops any
// invited payload.
func (r *Reservation) SetGeneral(p GeneralParty) {
	r.Kind = KindGeneral
	r.General = &p
	r.Invited = nil
}

// SetInvited switches the reservation to the invited shape and drops any
// general payload.
func (r *Reservation) SetInvited(p InvitedParty) {
	r.Kind = KindInvited
	r.Invited = &p
	r.General = nil
}

// CheckShape returns an error unless exactly the payload matching Kind is set.
func (r *Reservation) CheckShape() error {
	switch r.Kind {
	case KindGeneral:
		if r.General == nil || r.Invited != nil {
			return fmt.Errorf("general reservation %s has invalid payload", r.Key)
		}
	case KindInvited:
		if r.Invited == nil || r.General != nil {
			return fmt.Errorf("invited reservation %s has invalid payload", r.Key)
		}
	default:
		return fmt.Errorf("reservation %s has unknown kind %q", r.Key, r.Kind)
	}
	return nil
}

// Group returns the group at 1-based ordinal n, as used by group-specific
// ticket links.
func (r *Reservation) Group(n int) (Group, bool) {
	if r.Invited == nil || n < 1 || n > len(r.Invited.Groups) {
		return Group{}, false
	}
	return r.Invited.Groups[n-1], true
}

// GroupByNumber returns the group labelled number, e.g. "1234-3". Labels
// survive edits to other groups, so links built from them stay valid.
func (r *Reservation) GroupByNumber(number string) (Group, bool) {
	if r.Invited == nil || number == "" {
		return Group{}, false
	}
	for _, g := range r.Invited.Groups {
		if g.ReservationNumber == number {
			return g, true
		}
	}
	return Group{}, false
}

// ReservationInput is the raw form submission for a reservation.
// General submissions use RepresentativeName and Companions; invited
// submissions use Groups.
type ReservationInput struct {
	Kind               Kind         `json:"kind"`
	RepresentativeName string       `json:"representativeName"`
	Companions         []string     `json:"companions"`
	Groups             []GroupInput `json:"groups"`
}

// GroupInput is one group as submitted. ReservationNumber is echoed back by
// the client for groups that already exist so their labels survive edits.
type GroupInput struct {
	GroupName         string   `json:"groupName"`
	Companions        []string `json:"companions"`
	ReservationNumber string   `json:"reservationNumber,omitempty"`
}
