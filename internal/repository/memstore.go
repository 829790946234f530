package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/live-ticket-reserve/internal/model"
)

// MemoryStore is an in-process Store used by tests and local runs without
// PostgreSQL. Transactions are serialised by a single mutex and applied to a
// staged copy of the state that replaces the live state only on success.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	events       map[string]model.Event
	reservations map[string]model.Reservation
	profiles     map[string]model.UserProfile
	archives     []ArchivedProfile
	surveys      map[string]model.SurveyResponse
}

// ArchivedProfile is a profile removed by account withdrawal.
type ArchivedProfile struct {
	Profile    model.UserProfile
	ArchivedAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{
		events:       map[string]model.Event{},
		reservations: map[string]model.Reservation{},
		profiles:     map[string]model.UserProfile{},
		surveys:      map[string]model.SurveyResponse{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		events:       maps.Clone(s.events),
		reservations: make(map[string]model.Reservation, len(s.reservations)),
		profiles:     maps.Clone(s.profiles),
		archives:     slices.Clone(s.archives),
		surveys:      maps.Clone(s.surveys),
	}
	for k, r := range s.reservations {
		c.reservations[k] = cloneReservation(r)
	}
	return c
}

func cloneReservation(r model.Reservation) model.Reservation {
	if r.General != nil {
		g := *r.General
		g.Companions = slices.Clone(g.Companions)
		r.General = &g
	}
	if r.Invited != nil {
		inv := *r.Invited
		inv.Groups = make([]model.Group, len(r.Invited.Groups))
		for i, grp := range r.Invited.Groups {
			grp.Companions = slices.Clone(grp.Companions)
			inv.Groups[i] = grp
		}
		r.Invited = &inv
	}
	return r
}

// RunInTx runs fn with exclusive access to a staged copy of the state.
func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.state.clone()
	if err := fn(ctx, &memTx{state: &staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Archives returns the archived profiles, oldest first.
func (s *MemoryStore) Archives() []ArchivedProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.archives)
}

// CreateEvent stores a new event.
func (s *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.events[e.ID] = *e
	return nil
}

// GetEvent returns an event or ErrNotFound.
func (s *MemoryStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.state.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// ListEvents returns events on or after fromDate, newest first.
func (s *MemoryStore) ListEvents(_ context.Context, fromDate string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.state.events {
		if fromDate == "" || e.Date >= fromDate {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetReservation returns a reservation or ErrNotFound.
func (s *MemoryStore) GetReservation(_ context.Context, key string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.reservations[key]
	if !ok {
		return nil, ErrNotFound
	}
	r = cloneReservation(r)
	return &r, nil
}

// ListReservationsByUser returns the user's reservations, most recently updated first.
func (s *MemoryStore) ListReservationsByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.state.reservations {
		if r.UserID == userID {
			out = append(out, cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return strings.Compare(out[i].Key, out[j].Key) < 0
	})
	return out, nil
}

// GetProfile returns a profile or ErrNotFound.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// UpsertProfile creates or updates a profile. An existing profile keeps its
// CreatedAt and membership.
func (s *MemoryStore) UpsertProfile(_ context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *p
	if prev, ok := s.state.profiles[p.ID]; ok {
		out.CreatedAt = prev.CreatedAt
		out.IsMember = prev.IsMember
	}
	s.state.profiles[p.ID] = out
	return &out, nil
}

// SetMembership grants or revokes membership, creating a bare profile when
// the user has none yet.
func (s *MemoryStore) SetMembership(_ context.Context, userID string, isMember bool, at time.Time) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.profiles[userID]
	if !ok {
		p = model.UserProfile{ID: userID, CreatedAt: at}
	}
	p.IsMember = isMember
	s.state.profiles[userID] = p
	return &p, nil
}

// UpsertSurveyResponse merges the response by ID, keeping CreatedAt.
func (s *MemoryStore) UpsertSurveyResponse(_ context.Context, r *model.SurveyResponse) (*model.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *r
	out.Answers = maps.Clone(r.Answers)
	if prev, ok := s.state.surveys[r.ID]; ok {
		out.CreatedAt = prev.CreatedAt
	}
	s.state.surveys[r.ID] = out
	return &out, nil
}

// InsertSurveyResponse stores a new response.
func (s *MemoryStore) InsertSurveyResponse(_ context.Context, r *model.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *r
	out.Answers = maps.Clone(r.Answers)
	s.state.surveys[r.ID] = out
	return nil
}

// SurveyResponses returns every stored response for an event.
func (s *MemoryStore) SurveyResponses(eventID string) []model.SurveyResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SurveyResponse
	for _, r := range s.state.surveys {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out
}

// memTx operates on the staged state of a MemoryStore transaction.
type memTx struct {
	state *memState
}

func (t *memTx) EventForUpdate(_ context.Context, eventID string) (*model.Event, error) {
	e, ok := t.state.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (t *memTx) AdjustTotalReserved(_ context.Context, eventID string, delta int) error {
	e, ok := t.state.events[eventID]
	if !ok {
		return ErrNotFound
	}
	e.TotalReserved = max(e.TotalReserved+delta, 0)
	t.state.events[eventID] = e
	return nil
}

func (t *memTx) Reservation(_ context.Context, key string) (*model.Reservation, error) {
	r, ok := t.state.reservations[key]
	if !ok {
		return nil, ErrNotFound
	}
	r = cloneReservation(r)
	return &r, nil
}

func (t *memTx) PutReservation(_ context.Context, r *model.Reservation) error {
	if err := r.CheckShape(); err != nil {
		return err
	}
	stored := cloneReservation(*r)
	if prev, ok := t.state.reservations[r.Key]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	t.state.reservations[r.Key] = stored
	return nil
}

func (t *memTx) DeleteReservation(_ context.Context, key string) error {
	delete(t.state.reservations, key)
	return nil
}

func (t *memTx) Profile(_ context.Context, userID string) (*model.UserProfile, error) {
	p, ok := t.state.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (t *memTx) ArchiveProfile(_ context.Context, userID string, at time.Time) error {
	p, ok := t.state.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	t.state.archives = append(t.state.archives, ArchivedProfile{Profile: p, ArchivedAt: at})
	delete(t.state.profiles, userID)
	return nil
}
