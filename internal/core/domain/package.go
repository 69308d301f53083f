package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PackageType string

const (
	PackageCredit    PackageType = "credit"
	PackageUnlimited PackageType = "unlimited"
)

type PackageStatus string

const (
	PackageActive    PackageStatus = "active"
	PackageExpired   PackageStatus = "expired"
	PackageCancelled PackageStatus = "cancelled"
)

type PackageDefinition struct {
	ID           uuid.UUID
	Name         string
	Type         PackageType
	Credits      *int
	DurationDays int
	Price        decimal.Decimal
}

func (d *PackageDefinition) Validate() error {
	switch d.Type {
	case PackageCredit:
		if d.Credits == nil || *d.Credits <= 0 {
			return fmt.Errorf("%w: credit package needs a positive credit count", ErrValidation)
		}
	case PackageUnlimited:
		if d.Credits != nil {
			return fmt.Errorf("%w: unlimited package cannot carry credits", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown package type %q", ErrValidation, d.Type)
	}
	if d.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

// PackageInstance is a member's activation of a PackageDefinition.
// CreditsRemaining is nil for unlimited packages.
type PackageInstance struct {
	ID               uuid.UUID
	DefinitionID     uuid.UUID
	MemberID         uuid.UUID
	Type             PackageType
	CreditsRemaining *int
	ExpireAt         time.Time
	Status           PackageStatus
	Payment          Payment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPackageInstance(def *PackageDefinition, memberID uuid.UUID, now time.Time) *PackageInstance {
	inst := &PackageInstance{
		ID:           uuid.New(),
		DefinitionID: def.ID,
		MemberID:     memberID,
		Type:         def.Type,
		ExpireAt:     now.AddDate(0, 0, def.DurationDays),
		Status:       PackageActive,
		Payment: Payment{
			Status:    PaymentUnpaid,
			AmountDue: def.Price,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if def.Credits != nil {
		credits := *def.Credits
		inst.CreditsRemaining = &credits
	}
	return inst
}

func (p *PackageInstance) IsUnlimited() bool {
	return p.Type == PackageUnlimited
}

// Unusable returns why p cannot pay for a new booking at now, or nil.
// The stored status flag alone is never trusted: expiry and credit count
// are checked as well, in that order.
func (p *PackageInstance) Unusable(now time.Time) error {
	if p.Status != PackageActive {
		return ErrPackageInactive
	}
	if !now.Before(p.ExpireAt) {
		return ErrPackageExpired
	}
	if !p.IsUnlimited() && (p.CreditsRemaining == nil || *p.CreditsRemaining <= 0) {
		return ErrNoCreditsRemaining
	}
	return nil
}

func (p *PackageInstance) IsUsable(now time.Time) bool {
	return p.Unusable(now) == nil
}
