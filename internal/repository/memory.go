package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// MemoryStore keeps events, reservations and users in process memory. A
// single mutex is held for the whole of every callback, which gives the same
// serialization the PostgreSQL stores get from the event row lock.
type MemoryStore struct {
	mu           sync.Mutex
	events       map[string]model.Event
	reservations map[string]model.Reservation
	users        map[string]model.User
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]model.Event),
		reservations: make(map[string]model.Reservation),
		users:        make(map[string]model.User),
	}
}

// Events returns the event view of the store.
func (m *MemoryStore) Events() *MemoryEvents { return &MemoryEvents{m} }

// Reservations returns the reservation view of the store.
func (m *MemoryStore) Reservations() *MemoryReservations { return &MemoryReservations{m} }

// Users returns the account view of the store.
func (m *MemoryStore) Users() *MemoryUsers { return &MemoryUsers{m} }

// confirmedCount must be called with mu held.
func (m *MemoryStore) confirmedCount(eventID, except string) int {
	n := 0
	for id, r := range m.reservations {
		if r.EventID == eventID && r.Status == model.ReservationConfirmed && id != except {
			n++
		}
	}
	return n
}

func (m *MemoryStore) view(r model.Reservation) model.ReservationView {
	v := model.ReservationView{Reservation: r}
	if e, ok := m.events[r.EventID]; ok {
		v.Event = &model.EventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Time: e.Time, Location: e.Location, Status: e.Status}
	}
	if u, ok := m.users[r.ParticipantID]; ok {
		s := u.Summary()
		v.Participant = &s
	}
	return v
}

// ─── Events ────────────────────────────────────────────────────────────────────

// MemoryEvents is the in-memory EventStore.
type MemoryEvents struct{ m *MemoryStore }

func (s *MemoryEvents) Create(_ context.Context, e *model.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.events[e.ID] = *e
	return nil
}

func (s *MemoryEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, model.NotFound("event not found")
	}
	return &e, nil
}

func (s *MemoryEvents) ListPublished(_ context.Context) ([]model.Event, error) {
	out := s.filter(func(e model.Event) bool { return e.Status == model.EventPublished })
	slices.SortFunc(out, func(a, b model.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryEvents) ListByCreator(_ context.Context, creatorID string) ([]model.Event, error) {
	out := s.filter(func(e model.Event) bool { return e.CreatorID == creatorID })
	slices.SortFunc(out, func(a, b model.Event) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *MemoryEvents) filter(keep func(model.Event) bool) []model.Event {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Event
	for _, e := range s.m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *MemoryEvents) Mutate(_ context.Context, id string, fn func(e *model.Event, confirmed int) error) (*model.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok {
		return nil, model.NotFound("event not found")
	}
	if err := fn(&e, s.m.confirmedCount(id, "")); err != nil {
		return nil, err
	}
	e.UpdatedAt = time.Now().UTC()
	s.m.events[id] = e
	return &e, nil
}

func (s *MemoryEvents) DeleteCascade(_ context.Context, id string, fn func(e *model.Event) error) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok {
		return 0, model.NotFound("event not found")
	}
	if err := fn(&e); err != nil {
		return 0, err
	}
	removed := 0
	for rid, r := range s.m.reservations {
		if r.EventID == id {
			delete(s.m.reservations, rid)
			removed++
		}
	}
	delete(s.m.events, id)
	return removed, nil
}

// ─── Reservations ──────────────────────────────────────────────────────────────

// MemoryReservations is the in-memory ReservationStore.
type MemoryReservations struct{ m *MemoryStore }

func (s *MemoryReservations) Insert(_ context.Context, r *model.Reservation, fn func(e *model.Event, hasActive bool) error) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[r.EventID]
	if !ok {
		return model.NotFound("event not found")
	}
	hasActive := false
	for _, other := range s.m.reservations {
		if other.EventID == r.EventID && other.ParticipantID == r.ParticipantID && other.Status.Active() {
			hasActive = true
			break
		}
	}
	if err := fn(&e, hasActive); err != nil {
		return err
	}
	s.m.reservations[r.ID] = *r
	return nil
}

func (s *MemoryReservations) Mutate(_ context.Context, id string, fn func(r *model.Reservation, e *model.Event, confirmed int) error) (*model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, model.NotFound("reservation not found")
	}
	e, ok := s.m.events[r.EventID]
	if !ok {
		return nil, model.NotFound("associated event not found")
	}
	if err := fn(&r, &e, s.m.confirmedCount(r.EventID, id)); err != nil {
		return nil, err
	}
	r.UpdatedAt = time.Now().UTC()
	s.m.reservations[id] = r
	return &r, nil
}

func (s *MemoryReservations) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, model.NotFound("reservation not found")
	}
	return &r, nil
}

func (s *MemoryReservations) GetView(_ context.Context, id string) (*model.ReservationView, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return nil, model.NotFound("reservation not found")
	}
	v := s.m.view(r)
	return &v, nil
}

func (s *MemoryReservations) ListByParticipant(_ context.Context, participantID string) ([]model.ReservationView, error) {
	return s.views(func(r model.Reservation) bool { return r.ParticipantID == participantID }, true), nil
}

func (s *MemoryReservations) ListByEvent(_ context.Context, eventID string) ([]model.ReservationView, error) {
	return s.views(func(r model.Reservation) bool { return r.EventID == eventID }, false), nil
}

func (s *MemoryReservations) ListAll(_ context.Context) ([]model.ReservationView, error) {
	return s.views(func(model.Reservation) bool { return true }, true), nil
}

func (s *MemoryReservations) views(keep func(model.Reservation) bool, newestFirst bool) []model.ReservationView {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.ReservationView
	for _, r := range s.m.reservations {
		if keep(r) {
			out = append(out, s.m.view(r))
		}
	}
	slices.SortFunc(out, func(a, b model.ReservationView) int {
		c := cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
		if newestFirst {
			return -c
		}
		return c
	})
	return out
}

func (s *MemoryReservations) CountByEvent(_ context.Context, eventIDs []string) (map[string]model.StatusCounts, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	counts := make(map[string]model.StatusCounts, len(eventIDs))
	for _, r := range s.m.reservations {
		if !slices.Contains(eventIDs, r.EventID) {
			continue
		}
		c := counts[r.EventID]
		c.Add(r.Status, 1)
		counts[r.EventID] = c
	}
	return counts, nil
}

func (s *MemoryReservations) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.reservations[id]; !ok {
		return model.NotFound("reservation not found")
	}
	delete(s.m.reservations, id)
	return nil
}

// ─── Users ─────────────────────────────────────────────────────────────────────

// MemoryUsers is the in-memory UserStore.
type MemoryUsers struct{ m *MemoryStore }

func (s *MemoryUsers) Create(_ context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, other := range s.m.users {
		if other.Email == email {
			return model.Conflict("email already registered")
		}
	}
	stored := *u
	stored.Email = email
	s.m.users[u.ID] = stored
	return nil
}

func (s *MemoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return nil, model.NotFound("user not found")
	}
	return &u, nil
}

func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, model.NotFound("user not found")
}
