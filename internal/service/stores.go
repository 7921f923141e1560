// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// EventStore persists events. Mutate and DeleteCascade run fn while holding
// the event's lock, so fn's decision and the write are atomic.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListPublished(ctx context.Context) ([]model.Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Event, error)
	Mutate(ctx context.Context, id string, fn func(e *model.Event, confirmed int) error) (*model.Event, error)
	DeleteCascade(ctx context.Context, id string, fn func(e *model.Event) error) (int, error)
}

// ReservationStore persists reservations. In Mutate, confirmed counts the
// CONFIRMED reservations of the event other than the one being changed.
type ReservationStore interface {
	Insert(ctx context.Context, r *model.Reservation, fn func(e *model.Event, hasActive bool) error) error
	Mutate(ctx context.Context, id string, fn func(r *model.Reservation, e *model.Event, confirmed int) error) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetView(ctx context.Context, id string) (*model.ReservationView, error)
	ListByParticipant(ctx context.Context, participantID string) ([]model.ReservationView, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.ReservationView, error)
	ListAll(ctx context.Context) ([]model.ReservationView, error)
	CountByEvent(ctx context.Context, eventIDs []string) (map[string]model.StatusCounts, error)
	Delete(ctx context.Context, id string) error
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
