package service

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
)

const groupNumberSep = "-"

// ReservationKey is the record key for a user's reservation on an event.
// Resubmissions resolve to the same key, so saving is a keyed upsert.
func ReservationKey(eventID, userID string) string {
	return eventID + "_" + userID
}

// NumberSource mints a new base reservation number.
type NumberSource func() string

// RandomNumber returns a 4-digit number in [1000, 9999]. Numbers are
// presentation labels only; two reservations may share one.
func RandomNumber() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

// BaseNumber returns the base part of an existing reservation number, or a
// freshly minted one when there is none.
func BaseNumber(existing string, mint NumberSource) string {
	if base, _, _ := strings.Cut(existing, groupNumberSep); base != "" {
		return base
	}
	return mint()
}

// GroupNumber formats the label of the n-th group.
func GroupNumber(base string, n int) string {
	return base + groupNumberSep + strconv.Itoa(n)
}

// AssignGroupNumbers gives every group a sub-number.
//
// A group keeps the number it was submitted with when that number belonged
// to one of the prior groups, so links already handed out stay valid. Every
// other group gets base-<position>, moving to the next free position if a
// kept group already holds that label.
func AssignGroupNumbers(base string, groups []model.Group, prior []model.Group) []model.Group {
	known := make(map[string]bool, len(prior))
	for _, g := range prior {
		if g.ReservationNumber != "" {
			known[g.ReservationNumber] = true
		}
	}

	out := make([]model.Group, len(groups))
	used := make(map[string]bool, len(groups))
	for i, g := range groups {
		if known[g.ReservationNumber] && !used[g.ReservationNumber] {
			used[g.ReservationNumber] = true
		} else {
			g.ReservationNumber = ""
		}
		out[i] = g
	}

	for i := range out {
		if out[i].ReservationNumber != "" {
			continue
		}
		n := i + 1
		for used[GroupNumber(base, n)] {
			n++
		}
		out[i].ReservationNumber = GroupNumber(base, n)
		used[out[i].ReservationNumber] = true
	}
	return out
}
