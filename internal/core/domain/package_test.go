package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

func TestNewPackageInstance(t *testing.T) {
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	credits := 10
	def := &domain.PackageDefinition{
		ID:           uuid.New(),
		Type:         domain.PackageCredit,
		Credits:      &credits,
		DurationDays: 30,
		Price:        decimal.NewFromInt(7500),
	}
	memberID := uuid.New()

	inst := domain.NewPackageInstance(def, memberID, now)

	assert.Equal(t, memberID, inst.MemberID)
	assert.Equal(t, now.AddDate(0, 0, 30), inst.ExpireAt)
	assert.Equal(t, 10, *inst.CreditsRemaining)
	assert.Equal(t, domain.PaymentUnpaid, inst.Payment.Status)
	assert.True(t, def.Price.Equal(inst.Payment.AmountDue))

	*inst.CreditsRemaining = 3
	assert.Equal(t, 10, *def.Credits, "instance credits are independent of the definition")
}

func TestPackageInstance_Unusable(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	credits := func(n int) *int { return &n }

	tests := []struct {
		name string
		inst domain.PackageInstance
		want error
	}{
		{
			name: "usable credit package",
			inst: domain.PackageInstance{Type: domain.PackageCredit, Status: domain.PackageActive, CreditsRemaining: credits(1), ExpireAt: now.Add(time.Hour)},
		},
		{
			name: "usable unlimited package",
			inst: domain.PackageInstance{Type: domain.PackageUnlimited, Status: domain.PackageActive, ExpireAt: now.Add(time.Hour)},
		},
		{
			name: "out of credits",
			inst: domain.PackageInstance{Type: domain.PackageCredit, Status: domain.PackageActive, CreditsRemaining: credits(0), ExpireAt: now.Add(time.Hour)},
			want: domain.ErrNoCreditsRemaining,
		},
		{
			name: "expires exactly now",
			inst: domain.PackageInstance{Type: domain.PackageCredit, Status: domain.PackageActive, CreditsRemaining: credits(4), ExpireAt: now},
			want: domain.ErrPackageExpired,
		},
		{
			name: "expired status flag not yet set",
			inst: domain.PackageInstance{Type: domain.PackageUnlimited, Status: domain.PackageActive, ExpireAt: now.Add(-time.Hour)},
			want: domain.ErrPackageExpired,
		},
		{
			name: "cancelled",
			inst: domain.PackageInstance{Type: domain.PackageCredit, Status: domain.PackageCancelled, CreditsRemaining: credits(4), ExpireAt: now.Add(time.Hour)},
			want: domain.ErrPackageInactive,
		},
		{
			name: "expiry reported before credits",
			inst: domain.PackageInstance{Type: domain.PackageCredit, Status: domain.PackageActive, CreditsRemaining: credits(0), ExpireAt: now.Add(-time.Hour)},
			want: domain.ErrPackageExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inst.Unusable(now)
			if tt.want == nil {
				assert.NoError(t, err)
				assert.True(t, tt.inst.IsUsable(now))
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, tt.inst.IsUsable(now))
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	wrapped := fmt.Errorf("consume credit: %w", domain.ErrPackageExpired)
	assert.True(t, domain.IsPackageUnusable(wrapped))
	assert.False(t, domain.IsPackageUnusable(domain.ErrNoActivePackage))

	assert.True(t, domain.IsNotFound(fmt.Errorf("get: %w", domain.ErrSessionNotFound)))
	assert.True(t, errors.Is(domain.ErrBookingNotFound, domain.ErrNotFound))

	assert.True(t, domain.IsRetryable(fmt.Errorf("tx: %w", domain.ErrConcurrencyConflict)))

	err := error(&domain.TransitionError{Entity: "booking", From: "cancelled", Action: "cancel"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Contains(t, err.Error(), `state "cancelled"`)
}
