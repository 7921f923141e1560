package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// Notifier tells a participant that an admin decided on their reservation.
type Notifier interface {
	ReservationChanged(ctx context.Context, v *model.ReservationView) error
}

// ReservationService owns the reservation lifecycle: creation, the admin
// state machine with its capacity check, and cancellation by either side.
type ReservationService struct {
	events       EventStore
	reservations ReservationStore
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
}

// NewReservationService constructs a ReservationService. notifier may be nil.
func NewReservationService(events EventStore, reservations ReservationStore, notifier Notifier, logger *slog.Logger) *ReservationService {
	return &ReservationService{
		events:       events,
		reservations: reservations,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// Create places a PENDING reservation for the calling participant. Capacity
// is not checked here; it is enforced when an admin confirms.
func (s *ReservationService) Create(ctx context.Context, caller model.Identity, eventID string) (*model.Reservation, error) {
	if err := requireParticipant(caller); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, model.Invalid("eventId is required")
	}

	now := s.now().UTC()
	r := &model.Reservation{
		ID:            uuid.NewString(),
		EventID:       eventID,
		ParticipantID: caller.UserID,
		Status:        model.ReservationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reservations.Insert(ctx, r, model.CheckReservable); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reservation_created", "reservation_id", r.ID, "event_id", eventID, "participant_id", caller.UserID)
	return r, nil
}

// UpdateStatus moves a reservation to CONFIRMED or REFUSED. Confirmation
// fails once the event's CONFIRMED count has reached its capacity; the count
// and the write are atomic with respect to concurrent confirmations.
func (s *ReservationService) UpdateStatus(ctx context.Context, caller model.Identity, id string, target model.ReservationStatus) (*model.Reservation, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, model.Invalid("unknown reservation status %q", target)
	}

	r, err := s.reservations.Mutate(ctx, id, func(r *model.Reservation, e *model.Event, confirmed int) error {
		if err := model.CheckStatusChange(r, target, confirmed, e.MaxCapacity); err != nil {
			return err
		}
		r.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reservation_status_changed", "reservation_id", r.ID, "status", r.Status, "admin_id", caller.UserID)
	s.notify(ctx, r.ID)
	return r, nil
}

// Confirm is UpdateStatus to CONFIRMED.
func (s *ReservationService) Confirm(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error) {
	return s.UpdateStatus(ctx, caller, id, model.ReservationConfirmed)
}

// Refuse is UpdateStatus to REFUSED.
func (s *ReservationService) Refuse(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error) {
	return s.UpdateStatus(ctx, caller, id, model.ReservationRefused)
}

// CancelByParticipant withdraws the caller's own reservation.
func (s *ReservationService) CancelByParticipant(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error) {
	r, err := s.reservations.Mutate(ctx, id, func(r *model.Reservation, _ *model.Event, _ int) error {
		if r.ParticipantID != caller.UserID {
			return model.Forbidden("you can only cancel your own reservations")
		}
		return cancel(r, model.CanceledByParticipant)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reservation_canceled", "reservation_id", r.ID, "canceled_by", model.CanceledByParticipant)
	return r, nil
}

// CancelByAdmin withdraws any reservation on the admin's authority.
func (s *ReservationService) CancelByAdmin(ctx context.Context, caller model.Identity, id string) (*model.Reservation, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	r, err := s.reservations.Mutate(ctx, id, func(r *model.Reservation, _ *model.Event, _ int) error {
		return cancel(r, model.CanceledByAdmin)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "reservation_canceled", "reservation_id", r.ID, "canceled_by", model.CanceledByAdmin, "admin_id", caller.UserID)
	s.notify(ctx, r.ID)
	return r, nil
}

func cancel(r *model.Reservation, by model.CanceledBy) error {
	if err := model.CheckCancel(r); err != nil {
		return err
	}
	r.Status = model.ReservationCanceled
	r.CanceledBy = &by
	return nil
}

// Get returns one reservation with its event and participant. Participants
// may only read their own.
func (s *ReservationService) Get(ctx context.Context, caller model.Identity, id string) (*model.ReservationView, error) {
	v, err := s.reservations.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && v.ParticipantID != caller.UserID {
		return nil, model.Forbidden("access denied")
	}
	return v, nil
}

// ListMine returns the caller's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, caller model.Identity) ([]model.ReservationView, error) {
	return s.reservations.ListByParticipant(ctx, caller.UserID)
}

// ListAll returns every reservation in the system.
func (s *ReservationService) ListAll(ctx context.Context, caller model.Identity) ([]model.ReservationView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.reservations.ListAll(ctx)
}

// ListByEvent returns the reservations of one of the caller's events.
func (s *ReservationService) ListByEvent(ctx context.Context, caller model.Identity, eventID string) ([]model.ReservationView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, e); err != nil {
		return nil, err
	}
	return s.reservations.ListByEvent(ctx, eventID)
}

// Remove hard-deletes a reservation.
func (s *ReservationService) Remove(ctx context.Context, caller model.Identity, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "reservation_removed", "reservation_id", id, "admin_id", caller.UserID)
	return nil
}

// notify is best effort: the change is already committed, so failures are
// only logged.
func (s *ReservationService) notify(ctx context.Context, id string) {
	if s.notifier == nil {
		return
	}
	v, err := s.reservations.GetView(ctx, id)
	if err == nil {
		err = s.notifier.ReservationChanged(ctx, v)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.WarnContext(ctx, "reservation_notify_failed", "reservation_id", id, "error", err)
	}
}
