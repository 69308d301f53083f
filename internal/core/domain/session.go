package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClassSession struct {
	ID                uuid.UUID
	Title             string
	Capacity          int
	BookedCount       int
	StartsAt          time.Time
	EndsAt            time.Time
	BasePrice         decimal.Decimal
	EarlyBirdPrice    *decimal.Decimal
	EarlyBirdDeadline *time.Time
	IsCancelled       bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *ClassSession) SeatsLeft() int {
	left := s.Capacity - s.BookedCount
	if left < 0 {
		return 0
	}
	return left
}

func (s *ClassSession) HasStarted(now time.Time) bool {
	return !now.Before(s.StartsAt)
}

type Availability struct {
	SessionID uuid.UUID `json:"session_id"`
	Capacity  int       `json:"capacity"`
	SeatsLeft int       `json:"seats_left"`
}

// CapacityReport compares the denormalized booked count of a session with
// the bookings that actually hold a seat.
type CapacityReport struct {
	SessionID      uuid.UUID `json:"session_id"`
	Capacity       int       `json:"capacity"`
	BookedCount    int       `json:"booked_count"`
	ActiveBookings int       `json:"active_bookings"`
	Consistent     bool      `json:"consistent"`
}
