package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
)

// CreditLedger is the single mutation path for package credits.
type CreditLedger struct {
	packages ports.PackageRepository
	now      Clock
}

func NewCreditLedger(packages ports.PackageRepository, clock Clock) *CreditLedger {
	return &CreditLedger{packages: packages, now: clock.orDefault()}
}

// ResolveForBooking picks the package a member's booking is charged to.
// An explicit instance must belong to the member.
func (l *CreditLedger) ResolveForBooking(ctx context.Context, memberID uuid.UUID, explicit *uuid.UUID) (*domain.PackageInstance, error) {
	if explicit != nil {
		inst, err := l.packages.GetInstance(ctx, *explicit)
		if err != nil {
			return nil, fmt.Errorf("get package %s: %w", *explicit, err)
		}
		if inst.MemberID != memberID {
			return nil, fmt.Errorf("%w: package %s does not belong to member %s", domain.ErrValidation, inst.ID, memberID)
		}
		return inst, nil
	}

	inst, err := l.packages.FindForBooking(ctx, memberID, l.now())
	if err != nil {
		return nil, fmt.Errorf("find package for member %s: %w", memberID, err)
	}
	return inst, nil
}

// Consume takes one credit from inst. Unlimited packages are only checked.
func (l *CreditLedger) Consume(ctx context.Context, instanceID uuid.UUID) error {
	if err := l.packages.ConsumeCredit(ctx, instanceID, l.now()); err != nil {
		return fmt.Errorf("consume credit from package %s: %w", instanceID, err)
	}
	return nil
}

// Refund is the exact inverse of Consume. Callers guard it with the
// booking's CreditConsumed flag.
func (l *CreditLedger) Refund(ctx context.Context, instanceID uuid.UUID) error {
	if err := l.packages.RefundCredit(ctx, instanceID); err != nil {
		return fmt.Errorf("refund credit to package %s: %w", instanceID, err)
	}
	return nil
}
