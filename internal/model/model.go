// Package model defines the core domain types for the event reservation system.
package model

import "time"

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCanceled  EventStatus = "CANCELED"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCanceled:
		return true
	}
	return false
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationRefused   ReservationStatus = "REFUSED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationRefused, ReservationCanceled:
		return true
	}
	return false
}

// Active reports whether the status still holds (or may hold) a seat.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// CanceledBy records which side withdrew a reservation.
type CanceledBy string

const (
	CanceledByAdmin       CanceledBy = "ADMIN"
	CanceledByParticipant CanceledBy = "PARTICIPANT"
)

// Role is the coarse permission tag carried by every account.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleParticipant Role = "Participant"
)

// Event is a reservable activity owned by the admin who created it.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Time        string      `json:"time"`
	Location    string      `json:"location"`
	MaxCapacity int         `json:"maxCapacity"`
	Status      EventStatus `json:"status"`
	CreatorID   string      `json:"creatorId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Reservable reports whether new reservations may be placed on the event.
func (e *Event) Reservable() bool {
	return e.Status == EventPublished
}

// Reservation is a participant's claim on one seat of an event.
type Reservation struct {
	ID            string            `json:"id"`
	EventID       string            `json:"eventId"`
	ParticipantID string            `json:"participantId"`
	Status        ReservationStatus `json:"status"`
	CanceledBy    *CanceledBy       `json:"canceledBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// EventSummary is the slice of an event embedded in reservation listings.
type EventSummary struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Date     time.Time   `json:"date"`
	Time     string      `json:"time"`
	Location string      `json:"location"`
	Status   EventStatus `json:"status"`
}

// UserSummary is the public part of an account.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ReservationView is a reservation together with its event and participant.
// Either side may be nil when a listing does not need it.
type ReservationView struct {
	Reservation
	Event       *EventSummary `json:"event,omitempty"`
	Participant *UserSummary  `json:"participant,omitempty"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary strips credentials from the account.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Identity is the caller established by the auth layer for one request.
type Identity struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsParticipant reports whether the caller holds the participant role.
func (i Identity) IsParticipant() bool { return i.Role == RoleParticipant }

// ─── Requests ──────────────────────────────────────────────────────────────────

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Location    string      `json:"location"`
	MaxCapacity int         `json:"maxCapacity"`
	Status      EventStatus `json:"status,omitempty"`
}

// UpdateEventRequest carries a partial event update; nil fields are left alone.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
	MaxCapacity *int    `json:"maxCapacity,omitempty"`
}

// CreateReservationRequest is the payload for reserving a seat.
type CreateReservationRequest struct {
	EventID string `json:"eventId"`
}

// UpdateReservationStatusRequest is the admin payload for a status change.
type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status"`
}

// RegisterRequest is the payload for creating a participant account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        UserSummary `json:"user"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
