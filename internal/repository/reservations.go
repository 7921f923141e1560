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

// ReservationRepository handles persistence for reservations.
type ReservationRepository struct {
	db *pgxpool.Pool
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Insert stores a new reservation after fn approves it against the event and
// the participant's existing active reservation, if any.
//
// The event row is held with FOR SHARE: concurrent reservations for the same
// event proceed in parallel, while publish/cancel/delete and confirmations
// (FOR UPDATE) wait. Two racing requests from the same participant both pass
// the EXISTS check only to meet reservations_one_active_idx, which turns the
// loser into a Conflict.
func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation, fn func(e *model.Event, hasActive bool) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		e, err := scanEvent(tx.QueryRow(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR SHARE`, res.EventID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.NotFound("event not found")
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var hasActive bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (
			     SELECT 1 FROM reservations
			     WHERE event_id = $1 AND participant_id = $2 AND status IN ($3, $4))`,
			res.EventID, res.ParticipantID,
			string(model.ReservationPending), string(model.ReservationConfirmed),
		).Scan(&hasActive); err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}

		if err := fn(e, hasActive); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO reservations (`+reservationColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.ID, res.EventID, res.ParticipantID, string(res.Status),
			canceledByValue(res.CanceledBy), res.CreatedAt, res.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return model.Conflict("you already have a reservation for this event")
			}
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
}

// Mutate runs a read-check-write on one reservation atomically with respect
// to every other writer on the same event.
//
// Naive count-then-update lets two confirmations for the last free seat both
// read confirmed = capacity-1 and both commit. Here the event row is locked
// FOR UPDATE first, so a second confirmation blocks until the first commits
// and then counts its result. The reservation row is locked next (event
// before reservation, the same order DeleteCascade uses) and fn receives the
// number of CONFIRMED reservations on the event other than this one.
func (r *ReservationRepository) Mutate(ctx context.Context, id string, fn func(res *model.Reservation, e *model.Event, confirmed int) error) (*model.Reservation, error) {
	var out *model.Reservation
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		// event_id never changes, so reading it before taking locks is safe.
		var eventID string
		if err := tx.QueryRow(ctx, `SELECT event_id FROM reservations WHERE id = $1`, id).Scan(&eventID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.NotFound("reservation not found")
			}
			return fmt.Errorf("find reservation: %w", err)
		}

		e, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NotFound("associated event not found")
			}
			return err
		}

		res, err := scanReservation(tx.QueryRow(ctx,
			`SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.NotFound("reservation not found")
			}
			return fmt.Errorf("lock reservation row: %w", err)
		}

		var confirmed int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = $2 AND id <> $3`,
			eventID, string(model.ReservationConfirmed), id,
		).Scan(&confirmed); err != nil {
			return fmt.Errorf("count confirmed: %w", err)
		}

		if err := fn(res, e, confirmed); err != nil {
			return err
		}

		res.UpdatedAt = time.Now().UTC()
		if _, err := tx.Exec(ctx,
			`UPDATE reservations SET status = $2, canceled_by = $3, updated_at = $4 WHERE id = $1`,
			res.ID, string(res.Status), canceledByValue(res.CanceledBy), res.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update reservation: %w", err)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single reservation or a NotFound error.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound("reservation not found")
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

const viewQuery = `
	SELECT r.id, r.event_id, r.participant_id, r.status, r.canceled_by, r.created_at, r.updated_at,
	       e.title, e.date, e.time, e.location, e.status,
	       u.name, u.email, u.role
	FROM reservations r
	JOIN events e ON e.id = r.event_id
	LEFT JOIN users u ON u.id = r.participant_id`

func scanView(row scanner) (*model.ReservationView, error) {
	var (
		v                 model.ReservationView
		ev                model.EventSummary
		status, evStatus  string
		canceledBy        *string
		name, email, role *string
	)
	if err := row.Scan(&v.ID, &v.EventID, &v.ParticipantID, &status, &canceledBy, &v.CreatedAt, &v.UpdatedAt,
		&ev.Title, &ev.Date, &ev.Time, &ev.Location, &evStatus,
		&name, &email, &role); err != nil {
		return nil, err
	}
	v.Status = model.ReservationStatus(status)
	if canceledBy != nil {
		cb := model.CanceledBy(*canceledBy)
		v.CanceledBy = &cb
	}
	ev.ID = v.EventID
	ev.Status = model.EventStatus(evStatus)
	v.Event = &ev
	if name != nil {
		v.Participant = &model.UserSummary{ID: v.ParticipantID, Name: *name, Email: *email, Role: model.Role(*role)}
	}
	return &v, nil
}

// GetView returns one reservation with its event and participant.
func (r *ReservationRepository) GetView(ctx context.Context, id string) (*model.ReservationView, error) {
	v, err := scanView(r.db.QueryRow(ctx, viewQuery+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFound("reservation not found")
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return v, nil
}

// ListByParticipant returns a participant's reservations, newest first.
func (r *ReservationRepository) ListByParticipant(ctx context.Context, participantID string) ([]model.ReservationView, error) {
	return r.listViews(ctx, viewQuery+` WHERE r.participant_id = $1 ORDER BY r.created_at DESC`, participantID)
}

// ListByEvent returns an event's reservations in arrival order.
func (r *ReservationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.ReservationView, error) {
	return r.listViews(ctx, viewQuery+` WHERE r.event_id = $1 ORDER BY r.created_at ASC`, eventID)
}

// ListAll returns every reservation, newest first.
func (r *ReservationRepository) ListAll(ctx context.Context) ([]model.ReservationView, error) {
	return r.listViews(ctx, viewQuery+` ORDER BY r.created_at DESC`)
}

func (r *ReservationRepository) listViews(ctx context.Context, query string, args ...any) ([]model.ReservationView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var views []model.ReservationView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// CountByEvent tallies reservations by status for each of the given events.
// Events without reservations are absent from the map.
func (r *ReservationRepository) CountByEvent(ctx context.Context, eventIDs []string) (map[string]model.StatusCounts, error) {
	counts := make(map[string]model.StatusCounts, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT event_id, status, COUNT(*) FROM reservations
		 WHERE event_id = ANY($1)
		 GROUP BY event_id, status`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID, status string
			n               int
		)
		if err := rows.Scan(&eventID, &status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		c := counts[eventID]
		c.Add(model.ReservationStatus(status), n)
		counts[eventID] = c
	}
	return counts, rows.Err()
}

// Delete removes a reservation permanently.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NotFound("reservation not found")
	}
	return nil
}
