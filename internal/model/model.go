// Package model defines the core domain types for the live ticket reservation system.
package model

import "time"

// Event represents a scheduled live performance with a finite number of seats.
//
// TicketStock == 0 means the event has no seat limit. TotalReserved is only
// ever changed by the reservation and cancellation transactions.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	Venue           string    `json:"venue"`
	TicketStock     int       `json:"ticketStock"`
	TotalReserved   int       `json:"totalReserved"`
	IsAcceptReserve bool      `json:"isAcceptReserve"`
	AcceptStartDate string    `json:"acceptStartDate"`
	AcceptEndDate   string    `json:"acceptEndDate"`
	MaxCompanions   int       `json:"maxCompanions"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Unlimited reports whether the event has no seat limit.
func (e *Event) Unlimited() bool {
	return e.TicketStock == 0
}

// Remaining returns the number of available seats, or -1 when unlimited.
func (e *Event) Remaining() int {
	if e.Unlimited() {
		return -1
	}
	if r := e.TicketStock - e.TotalReserved; r > 0 {
		return r
	}
	return 0
}

// IsSoldOut returns true when a limited event has no seats left.
func (e *Event) IsSoldOut() bool {
	return !e.Unlimited() && e.TotalReserved >= e.TicketStock
}

// AcceptingOn reports whether reservations are open on the given day.
// Dates are YYYY-MM-DD strings and compare lexicographically; an empty
// bound leaves that side of the window open.
func (e *Event) AcceptingOn(today string) bool {
	if !e.IsAcceptReserve {
		return false
	}
	if e.AcceptStartDate != "" && today < e.AcceptStartDate {
		return false
	}
	if e.AcceptEndDate != "" && today > e.AcceptEndDate {
		return false
	}
	return true
}

// UserProfile is the account record kept for a signed-in user.
// Members may make invited reservations on behalf of their guests.
type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	IsMember    bool      `json:"isMember"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title           string `json:"title"`
	Date            string `json:"date"`
	Venue           string `json:"venue"`
	TicketStock     int    `json:"ticketStock"`
	IsAcceptReserve bool   `json:"isAcceptReserve"`
	AcceptStartDate string `json:"acceptStartDate"`
	AcceptEndDate   string `json:"acceptEndDate"`
	MaxCompanions   int    `json:"maxCompanions"`
}

// UpsertProfileRequest is the payload for creating or updating the caller's
// profile. Membership is not self-service; see SetMembershipRequest.
type UpsertProfileRequest struct {
	DisplayName string `json:"displayName"`
}

// SetMembershipRequest is the administrative payload for granting or
// revoking membership.
type SetMembershipRequest struct {
	IsMember bool `json:"isMember"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
