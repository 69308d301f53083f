package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// PricingResolver prices drop-in bookings. Balances are always repriced
// live, so an unpaid booking follows the early-bird window.
type PricingResolver struct {
	now Clock
}

func NewPricingResolver(clock Clock) *PricingResolver {
	return &PricingResolver{now: clock.orDefault()}
}

func (p *PricingResolver) PriceAt(session *domain.ClassSession, at time.Time) decimal.Decimal {
	return domain.ResolvePrice(session, at)
}

func (p *PricingResolver) CurrentPrice(session *domain.ClassSession) decimal.Decimal {
	return domain.ResolvePrice(session, p.now())
}

func (p *PricingResolver) Outstanding(booking *domain.Booking, session *domain.ClassSession) decimal.Decimal {
	return domain.OutstandingBalance(booking, session, p.now())
}
