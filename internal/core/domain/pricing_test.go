package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

var deadline = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func earlyBird() *domain.ClassSession {
	early := decimal.NewFromInt(800)
	d := deadline
	return &domain.ClassSession{
		ID:                uuid.New(),
		Capacity:          10,
		StartsAt:          deadline.Add(72 * time.Hour),
		EndsAt:            deadline.Add(73 * time.Hour),
		BasePrice:         decimal.NewFromInt(1000),
		EarlyBirdPrice:    &early,
		EarlyBirdDeadline: &d,
	}
}

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want int64
	}{
		{"well before deadline", deadline.Add(-48 * time.Hour), 800},
		{"one second before deadline", deadline.Add(-time.Second), 800},
		{"exactly at deadline", deadline, 800},
		{"one second after deadline", deadline.Add(time.Second), 1000},
	}

	s := earlyBird()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ResolvePrice(s, tt.at)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestResolvePrice_WithoutEarlyBird(t *testing.T) {
	s := earlyBird()
	s.EarlyBirdPrice = nil
	assert.True(t, s.BasePrice.Equal(domain.ResolvePrice(s, deadline.Add(-time.Hour))))

	s = earlyBird()
	s.EarlyBirdDeadline = nil
	assert.True(t, s.BasePrice.Equal(domain.ResolvePrice(s, deadline.Add(-time.Hour))))
}

func TestOutstandingBalance(t *testing.T) {
	before := deadline.Add(-time.Hour)
	after := deadline.Add(time.Hour)

	dropIn := func(status domain.PaymentStatus, paid int64) *domain.Booking {
		return &domain.Booking{
			Kind:   domain.KindDropIn,
			Status: domain.BookingBooked,
			Payment: domain.Payment{
				Status:     status,
				AmountDue:  decimal.NewFromInt(800),
				AmountPaid: decimal.NewFromInt(paid),
			},
		}
	}

	tests := []struct {
		name    string
		booking *domain.Booking
		at      time.Time
		want    int64
	}{
		{"unpaid inside early-bird window", dropIn(domain.PaymentUnpaid, 0), before, 800},
		{"unpaid reprices after deadline", dropIn(domain.PaymentUnpaid, 0), after, 1000},
		{"evidence pending still owes", dropIn(domain.PaymentPartial, 0), after, 1000},
		{"earlier money is credited", dropIn(domain.PaymentUnpaid, 300), after, 700},
		{"overpaid never goes negative", dropIn(domain.PaymentUnpaid, 1500), after, 0},
		{"settled owes nothing", dropIn(domain.PaymentPaid, 800), after, 0},
		{"short verification owes the rest", dropIn(domain.PaymentPaid, 500), before, 300},
		{"short verification reprices after deadline", dropIn(domain.PaymentPaid, 500), after, 500},
		{"package owes nothing", &domain.Booking{Kind: domain.KindPackage, Status: domain.BookingBooked}, after, 0},
		{"cancelled owes nothing", &domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingCancelled}, after, 0},
	}

	s := earlyBird()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.OutstandingBalance(tt.booking, s, tt.at)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestClassSession_SeatsAndStart(t *testing.T) {
	s := earlyBird()
	s.BookedCount = 10
	assert.Equal(t, 0, s.SeatsLeft())

	s.BookedCount = 12
	assert.Equal(t, 0, s.SeatsLeft())

	s.BookedCount = 3
	assert.Equal(t, 7, s.SeatsLeft())

	assert.False(t, s.HasStarted(s.StartsAt.Add(-time.Nanosecond)))
	assert.True(t, s.HasStarted(s.StartsAt))
}
