package model

import "math"

// StatusCounts tallies reservations of an event by status.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Refused   int `json:"refused"`
	Canceled  int `json:"canceled"`
}

// Add increments the bucket for status.
func (c *StatusCounts) Add(status ReservationStatus, n int) {
	switch status {
	case ReservationPending:
		c.Pending += n
	case ReservationConfirmed:
		c.Confirmed += n
	case ReservationRefused:
		c.Refused += n
	case ReservationCanceled:
		c.Canceled += n
	}
}

// Total is the number of reservations across all statuses.
func (c StatusCounts) Total() int {
	return c.Pending + c.Confirmed + c.Refused + c.Canceled
}

// FillRate returns round(confirmed / capacity × 100), or 0 for a
// non-positive capacity.
func FillRate(confirmed, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(float64(confirmed) / float64(capacity) * 100))
}

// EventStats describes how full a single event is.
type EventStats struct {
	EventID     string       `json:"eventId"`
	MaxCapacity int          `json:"maxCapacity"`
	Remaining   int          `json:"remaining"`
	FillRate    int          `json:"fillRate"`
	Counts      StatusCounts `json:"counts"`
}

// NewEventStats derives the stats of e from its reservation counts.
func NewEventStats(e *Event, counts StatusCounts) EventStats {
	remaining := e.MaxCapacity - counts.Confirmed
	if remaining < 0 {
		remaining = 0
	}
	return EventStats{
		EventID:     e.ID,
		MaxCapacity: e.MaxCapacity,
		Remaining:   remaining,
		FillRate:    FillRate(counts.Confirmed, e.MaxCapacity),
		Counts:      counts,
	}
}

// DashboardStats is the admin overview across the admin's events.
type DashboardStats struct {
	TotalEvents           int               `json:"totalEvents"`
	UpcomingEvents        int               `json:"upcomingEvents"`
	TotalReservations     int               `json:"totalReservations"`
	ConfirmedReservations int               `json:"confirmedReservations"`
	PendingReservations   int               `json:"pendingReservations"`
	RefusedReservations   int               `json:"refusedReservations"`
	CanceledReservations  int               `json:"canceledReservations"`
	AverageFillRate       int               `json:"averageFillRate"`
	RecentEvents          []Event           `json:"recentEvents"`
	RecentReservations    []ReservationView `json:"recentReservations"`
}

// AggregateFillRate computes the fill rate over all PUBLISHED events:
// round(Σconfirmed / Σcapacity × 100), zero when there is no capacity.
func AggregateFillRate(events []Event, counts map[string]StatusCounts) int {
	var confirmed, capacity int
	for i := range events {
		if events[i].Status != EventPublished {
			continue
		}
		confirmed += counts[events[i].ID].Confirmed
		capacity += events[i].MaxCapacity
	}
	return FillRate(confirmed, capacity)
}
