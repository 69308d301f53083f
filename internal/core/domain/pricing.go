package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolvePrice returns the drop-in price of s at instant at. The early-bird
// price applies up to and including the deadline.
func ResolvePrice(s *ClassSession, at time.Time) decimal.Decimal {
	if s.EarlyBirdDeadline != nil && !at.After(*s.EarlyBirdDeadline) {
		if s.EarlyBirdPrice != nil {
			return *s.EarlyBirdPrice
		}
	}
	return s.BasePrice
}

// OutstandingBalance reprices b against s at now. Settled, cancelled and
// package bookings owe nothing; the result never goes below zero.
func OutstandingBalance(b *Booking, s *ClassSession, now time.Time) decimal.Decimal {
	if b.Kind == KindPackage || b.Status == BookingCancelled || b.Payment.Settled() {
		return decimal.Zero
	}
	owed := ResolvePrice(s, now).Sub(b.Payment.AmountPaid)
	if owed.IsNegative() {
		return decimal.Zero
	}
	return owed
}
