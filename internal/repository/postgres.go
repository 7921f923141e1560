// Package repository implements persistence for events, reservations and
// users. The PostgreSQL stores use pgx directly (no ORM); MemoryStore backs
// development runs and tests with the same locking semantics.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-reservations/internal/model"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn inside a transaction that is committed only when fn returns
// nil. Every other path rolls back.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const eventColumns = `id, title, description, date, time, location, max_capacity, status, creator_id, created_at, updated_at`

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e      model.Event
		status string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.MaxCapacity, &status, &e.CreatorID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

const reservationColumns = `id, event_id, participant_id, status, canceled_by, created_at, updated_at`

func scanReservation(row scanner) (*model.Reservation, error) {
	var (
		r          model.Reservation
		status     string
		canceledBy *string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.ParticipantID, &status, &canceledBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.ReservationStatus(status)
	if canceledBy != nil {
		cb := model.CanceledBy(*canceledBy)
		r.CanceledBy = &cb
	}
	return &r, nil
}

func canceledByValue(cb *model.CanceledBy) *string {
	if cb == nil {
		return nil
	}
	s := string(*cb)
	return &s
}
