package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

const (
	maxEventCapacity = 100_000
	dashboardRecent  = 5
)

// EventService orchestrates event-related business operations.
type EventService struct {
	events       EventStore
	reservations ReservationStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, reservations ReservationStore, logger *slog.Logger) *EventService {
	return &EventService{events: events, reservations: reservations, logger: logger, now: time.Now}
}

// Create validates the request and stores a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, caller model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	req.Time = strings.TrimSpace(req.Time)
	switch {
	case req.Title == "":
		return nil, model.Invalid("title is required")
	case req.Description == "":
		return nil, model.Invalid("description is required")
	case req.Location == "":
		return nil, model.Invalid("location is required")
	case req.Time == "":
		return nil, model.Invalid("time is required")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateCapacity(req.MaxCapacity); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.EventDraft
	}
	if status != model.EventDraft && status != model.EventPublished {
		return nil, model.Invalid("status must be %s or %s", model.EventDraft, model.EventPublished)
	}

	now := s.now().UTC()
	e := &model.Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		MaxCapacity: req.MaxCapacity,
		Status:      status,
		CreatorID:   caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event_created", "event_id", e.ID, "creator_id", e.CreatorID, "status", e.Status)
	return e, nil
}

// ListPublished returns the public catalogue.
func (s *EventService) ListPublished(ctx context.Context) ([]model.Event, error) {
	return s.events.ListPublished(ctx)
}

// GetPublic returns a PUBLISHED event. Any other event is reported as
// missing so unpublished events stay hidden.
func (s *EventService) GetPublic(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != model.EventPublished {
		return nil, model.NotFound("event not found")
	}
	return e, nil
}

// ListAdmin returns every event the calling admin created.
func (s *EventService) ListAdmin(ctx context.Context, caller model.Identity) ([]model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.events.ListByCreator(ctx, caller.UserID)
}

// GetAdmin returns one of the caller's events in any status.
func (s *EventService) GetAdmin(ctx context.Context, caller model.Identity, id string) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies a partial change to an event's details. Status is changed
// only through Publish and Cancel.
func (s *EventService) Update(ctx context.Context, caller model.Identity, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	var date time.Time
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}
	if req.MaxCapacity != nil {
		if err := validateCapacity(*req.MaxCapacity); err != nil {
			return nil, err
		}
	}

	e, err := s.events.Mutate(ctx, id, func(e *model.Event, confirmed int) error {
		if err := requireOwner(caller, e); err != nil {
			return err
		}
		if err := setText(&e.Title, req.Title, "title"); err != nil {
			return err
		}
		if err := setText(&e.Description, req.Description, "description"); err != nil {
			return err
		}
		if err := setText(&e.Location, req.Location, "location"); err != nil {
			return err
		}
		if err := setText(&e.Time, req.Time, "time"); err != nil {
			return err
		}
		if req.Date != nil {
			e.Date = date
		}
		if req.MaxCapacity != nil {
			if *req.MaxCapacity < confirmed {
				return model.InvalidState("max capacity cannot be lower than the %d confirmed reservations", confirmed)
			}
			e.MaxCapacity = *req.MaxCapacity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event_updated", "event_id", e.ID)
	return e, nil
}

// Publish opens a DRAFT event for reservations.
func (s *EventService) Publish(ctx context.Context, caller model.Identity, id string) (*model.Event, error) {
	return s.transition(ctx, caller, id, "event_published", func(e *model.Event) error {
		if err := model.CheckPublish(e); err != nil {
			return err
		}
		e.Status = model.EventPublished
		return nil
	})
}

// Cancel closes an event. Existing reservations are left as they are.
func (s *EventService) Cancel(ctx context.Context, caller model.Identity, id string) (*model.Event, error) {
	return s.transition(ctx, caller, id, "event_canceled", func(e *model.Event) error {
		e.Status = model.EventCanceled
		return nil
	})
}

func (s *EventService) transition(ctx context.Context, caller model.Identity, id, logEvent string, apply func(*model.Event) error) (*model.Event, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	e, err := s.events.Mutate(ctx, id, func(e *model.Event, _ int) error {
		if err := requireOwner(caller, e); err != nil {
			return err
		}
		return apply(e)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, logEvent, "event_id", e.ID)
	return e, nil
}

// Delete removes an event together with all of its reservations. Either
// both go or neither does.
func (s *EventService) Delete(ctx context.Context, caller model.Identity, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	removed, err := s.events.DeleteCascade(ctx, id, func(e *model.Event) error {
		return requireOwner(caller, e)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "event_deleted", "event_id", id, "reservations_removed", removed)
	return nil
}

// Stats reports how full one of the caller's events is.
func (s *EventService) Stats(ctx context.Context, caller model.Identity, id string) (*model.EventStats, error) {
	e, err := s.GetAdmin(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.reservations.CountByEvent(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	stats := model.NewEventStats(e, counts[e.ID])
	return &stats, nil
}

// Dashboard summarizes the caller's events and their reservations.
func (s *EventService) Dashboard(ctx context.Context, caller model.Identity) (*model.DashboardStats, error) {
	events, err := s.ListAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(events))
	owned := make(map[string]bool, len(events))
	for i := range events {
		ids[i] = events[i].ID
		owned[events[i].ID] = true
	}
	counts, err := s.reservations.CountByEvent(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	d := &model.DashboardStats{
		TotalEvents:        len(events),
		AverageFillRate:    model.AggregateFillRate(events, counts),
		RecentEvents:       events[:min(dashboardRecent, len(events))],
		RecentReservations: []model.ReservationView{},
	}
	for i := range events {
		if events[i].Status == model.EventPublished && !events[i].Date.Before(today) {
			d.UpcomingEvents++
		}
		c := counts[events[i].ID]
		d.TotalReservations += c.Total()
		d.ConfirmedReservations += c.Confirmed
		d.PendingReservations += c.Pending
		d.RefusedReservations += c.Refused
		d.CanceledReservations += c.Canceled
	}

	if d.TotalReservations > 0 {
		all, err := s.reservations.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, v := range all {
			if len(d.RecentReservations) == dashboardRecent {
				break
			}
			if owned[v.EventID] {
				d.RecentReservations = append(d.RecentReservations, v)
			}
		}
	}
	if d.RecentEvents == nil {
		d.RecentEvents = []model.Event{}
	}
	return d, nil
}

// parseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, model.Invalid("date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, model.Invalid("date must be YYYY-MM-DD or RFC 3339")
}

func validateCapacity(n int) error {
	if n <= 0 {
		return model.Invalid("maxCapacity must be a positive integer")
	}
	if n > maxEventCapacity {
		return model.Invalid("maxCapacity cannot exceed 100,000")
	}
	return nil
}

func setText(dst *string, v *string, field string) error {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return model.Invalid("%s cannot be empty", field)
	}
	*dst = trimmed
	return nil
}
