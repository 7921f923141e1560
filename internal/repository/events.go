package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a fully populated event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Location,
		e.MaxCapacity, string(e.Status), e.CreatorID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or a NotFound error.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound("event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListPublished returns every PUBLISHED event, soonest first.
func (r *EventRepository) ListPublished(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE status = $1 ORDER BY date ASC, created_at ASC`,
		string(model.EventPublished))
}

// ListByCreator returns the events owned by an admin, newest first.
func (r *EventRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE creator_id = $1 ORDER BY created_at DESC`,
		creatorID)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Mutate locks the event row, hands it to fn together with its current
// CONFIRMED count, and writes back whatever fn left in the struct. Returning
// an error from fn aborts without writing.
func (r *EventRepository) Mutate(ctx context.Context, id string, fn func(e *model.Event, confirmed int) error) (*model.Event, error) {
	var out *model.Event
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		e, err := lockEvent(ctx, tx, id)
		if err != nil {
			return err
		}

		var confirmed int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = $2`,
			id, string(model.ReservationConfirmed),
		).Scan(&confirmed); err != nil {
			return fmt.Errorf("count confirmed: %w", err)
		}

		if err := fn(e, confirmed); err != nil {
			return err
		}

		e.UpdatedAt = time.Now().UTC()
		if _, err := tx.Exec(ctx,
			`UPDATE events
			 SET title = $2, description = $3, date = $4, time = $5, location = $6,
			     max_capacity = $7, status = $8, updated_at = $9
			 WHERE id = $1`,
			e.ID, e.Title, e.Description, e.Date, e.Time, e.Location,
			e.MaxCapacity, string(e.Status), e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCascade removes the event and every reservation that references it in
// one transaction. fn sees the locked event first and may veto the delete.
// It returns the number of reservations removed.
func (r *EventRepository) DeleteCascade(ctx context.Context, id string, fn func(e *model.Event) error) (int, error) {
	var removed int
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		e, err := lockEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE event_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete reservations: %w", err)
		}
		removed = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// lockEvent takes the row lock that serializes every capacity decision on
// the event. All writers lock the event before any of its reservations.
func lockEvent(ctx context.Context, tx pgx.Tx, id string) (*model.Event, error) {
	e, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound("event not found")
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return e, nil
}
