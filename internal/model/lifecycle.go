package model

// CheckStatusChange applies the admin state machine for moving r to target.
// confirmed is the number of CONFIRMED reservations on the event other than r
// itself, and capacity is the event's maxCapacity. The caller must hold
// whatever lock makes confirmed current until the change is written.
func CheckStatusChange(r *Reservation, target ReservationStatus, confirmed, capacity int) error {
	switch r.Status {
	case ReservationCanceled:
		return InvalidState("cannot update a canceled reservation")
	case ReservationRefused:
		if target != ReservationConfirmed {
			return InvalidState("cannot update a refused reservation")
		}
	}

	// Withdrawal goes through the cancel paths so canceledBy is always set.
	if target != ReservationConfirmed && target != ReservationRefused {
		return InvalidState("reservation status can only be set to %s or %s", ReservationConfirmed, ReservationRefused)
	}

	if target == ReservationConfirmed && r.Status != ReservationConfirmed && confirmed >= capacity {
		return InvalidState("event is full")
	}
	return nil
}

// CheckCancel reports whether r may still be withdrawn.
func CheckCancel(r *Reservation) error {
	switch r.Status {
	case ReservationCanceled:
		return InvalidState("reservation is already canceled")
	case ReservationRefused:
		return InvalidState("cannot cancel a refused reservation")
	}
	return nil
}

// CheckReservable applies the event-side rules for a new reservation.
func CheckReservable(e *Event, hasActive bool) error {
	if !e.Reservable() {
		return InvalidState("event is not available for reservation")
	}
	if hasActive {
		return Conflict("you already have a reservation for this event")
	}
	return nil
}

// CheckPublish validates the DRAFT→PUBLISHED transition. Publishing an
// already published event is accepted as a no-op.
func CheckPublish(e *Event) error {
	if e.Status == EventCanceled {
		return InvalidState("cannot publish a canceled event")
	}
	return nil
}
