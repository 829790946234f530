// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/repository"
	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/service"
	"github.com/go-chi/chi/v5"
)

// Handler holds all HTTP handlers for the reservation API.
type Handler struct {
	events       *service.EventService
	reservations *service.ReservationService
	accounts     *service.AccountService
	surveys      *service.SurveyService
	logger       *slog.Logger
}

// New constructs a Handler.
func New(
	events *service.EventService,
	reservations *service.ReservationService,
	accounts *service.AccountService,
	surveys *service.SurveyService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		events:       events,
		reservations: reservations,
		accounts:     accounts,
		surveys:      surveys,
		logger:       logger,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service and repository errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, service.ErrCapacityExceeded.Error())
	case errors.Is(err, service.ErrReservationClosed):
		writeError(w, http.StatusConflict, service.ErrReservationClosed.Error())
	case errors.Is(err, service.ErrNotMember):
		writeError(w, http.StatusForbidden, service.ErrNotMember.Error())
	case errors.Is(err, repository.ErrTxConflict):
		writeError(w, http.StatusServiceUnavailable, "the event is busy, please try again")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
// Administrative: creates a new event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?from=YYYY-MM-DD
// Returns upcoming events, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListUpcomingEvents(r.Context(), r.URL.Query().Get("from"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// eventView adds derived status to an event.
type eventView struct {
	*model.Event
	Remaining int  `json:"remaining"`
	SoldOut   bool `json:"soldOut"`
	Accepting bool `json:"accepting"`
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, eventView{
		Event:     event,
		Remaining: event.Remaining(),
		SoldOut:   event.IsSoldOut(),
		Accepting: event.AcceptingOn(h.events.Today()),
	})
}

// ─── Reservations ─────────────────────────────────────────────────────────────

// SubmitReservation handles PUT /events/{id}/reservation
// Creates or replaces the caller's reservation for the event.
func (h *Handler) SubmitReservation(w http.ResponseWriter, r *http.Request) {
	var in model.ReservationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.SubmitReservation(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GetMyReservation handles GET /events/{id}/reservation
func (h *Handler) GetMyReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.GetReservation(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelReservation handles DELETE /events/{id}/reservation
// Cancelling a reservation that does not exist succeeds with cancelled=false.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ok, err := h.reservations.CancelReservation(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": ok})
}

// ListMyReservations handles GET /reservations
func (h *Handler) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListReservations(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetReservation handles GET /reservations/{key}?n=1234-2 (or ?g=N)
// With n, only the group labelled n is returned, for the group-specific
// links members hand out to their guests. g selects a group by its 1-based
// position and is kept for links issued before labels were used.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.GetReservationByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	var (
		group model.Group
		ok    bool
	)
	switch {
	case q.Has("n"):
		group, ok = res.GroupByNumber(q.Get("n"))
	case q.Has("g"):
		n, err := strconv.Atoi(q.Get("g"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "g must be a group number")
			return
		}
		group, ok = res.Group(n)
	default:
		writeJSON(w, http.StatusOK, res)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":     res.Key,
		"eventId": res.EventID,
		"group":   group,
	})
}

// ─── Account ──────────────────────────────────────────────────────────────────

// UpsertProfile handles PUT /users/me
func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpsertProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.accounts.UpsertProfile(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetMembership handles PUT /admin/members/{userID}
func (h *Handler) SetMembership(w http.ResponseWriter, r *http.Request) {
	var req model.SetMembershipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.accounts.SetMembership(r.Context(), chi.URLParam(r, "userID"), req.IsMember)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetProfile handles GET /users/me
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.GetProfile(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// WithdrawAccount handles DELETE /users/me
func (h *Handler) WithdrawAccount(w http.ResponseWriter, r *http.Request) {
	res, err := h.accounts.WithdrawAccount(r.Context(), UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Survey ───────────────────────────────────────────────────────────────────

// SurveyQuestions handles GET /survey/questions
func (h *Handler) SurveyQuestions(w http.ResponseWriter, r *http.Request) {
	qs := h.surveys.Questions()
	if qs == nil {
		qs = []model.Question{}
	}
	writeJSON(w, http.StatusOK, qs)
}

// SubmitSurvey handles POST /events/{id}/survey
// The X-User-ID header is optional; without it the response is anonymous.
func (h *Handler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var req model.SurveyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var userID *string
	if id := UserID(r.Context()); id != "" {
		userID = &id
	}
	resp, err := h.surveys.SubmitSurvey(r.Context(), chi.URLParam(r, "id"), userID, req.Answers)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
