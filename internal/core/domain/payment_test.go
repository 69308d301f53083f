package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

func TestPayment_SubmitEvidence(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.PaymentStatus
		ref     string
		wantErr error
	}{
		{"from unpaid", domain.PaymentUnpaid, "https://cdn.example.com/r.png", nil},
		{"from rejected", domain.PaymentRejected, "https://cdn.example.com/r.png", nil},
		{"replaces pending evidence", domain.PaymentPartial, "https://cdn.example.com/r2.png", nil},
		{"from paid", domain.PaymentPaid, "https://cdn.example.com/r.png", domain.ErrInvalidTransition},
		{"relative path", domain.PaymentUnpaid, "/uploads/r.png", domain.ErrValidation},
		{"no host", domain.PaymentUnpaid, "file:///tmp/r.png", domain.ErrValidation},
		{"empty", domain.PaymentUnpaid, "", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Payment{Status: tt.from}
			err := p.SubmitEvidence(tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, p.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.PaymentPartial, p.Status)
			assert.Equal(t, tt.ref, p.EvidenceRef)
			assert.Nil(t, p.PaidAt)
		})
	}
}

func TestPayment_Verify(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	due := decimal.NewFromInt(1000)

	t.Run("zero amount settles what is due", func(t *testing.T) {
		p := domain.Payment{Status: domain.PaymentPartial, AmountDue: due}
		paid, err := p.Verify(decimal.Zero, now, false)
		require.NoError(t, err)
		assert.True(t, due.Equal(paid))
		assert.True(t, due.Equal(p.AmountPaid))
		assert.Equal(t, domain.PaymentPaid, p.Status)
		assert.Equal(t, now, *p.PaidAt)
	})

	t.Run("explicit amount", func(t *testing.T) {
		p := domain.Payment{Status: domain.PaymentPartial, AmountDue: due}
		paid, err := p.Verify(decimal.NewFromInt(950), now, false)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(950).Equal(paid))
	})

	t.Run("unpaid needs force", func(t *testing.T) {
		p := domain.Payment{Status: domain.PaymentUnpaid, AmountDue: due}
		_, err := p.Verify(decimal.Zero, now, false)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = p.Verify(decimal.Zero, now, true)
		assert.NoError(t, err)
	})

	t.Run("paid cannot be verified again even with force", func(t *testing.T) {
		p := domain.Payment{Status: domain.PaymentPaid, AmountDue: due, AmountPaid: due}
		_, err := p.Verify(decimal.Zero, now, true)
		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "paid", te.From)
	})

	t.Run("negative amount", func(t *testing.T) {
		p := domain.Payment{Status: domain.PaymentPartial, AmountDue: due}
		_, err := p.Verify(decimal.NewFromInt(-1), now, true)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.PaymentPartial, p.Status)
	})
}

func TestPayment_RejectAndReverse(t *testing.T) {
	p := domain.Payment{Status: domain.PaymentUnpaid}
	assert.ErrorIs(t, p.Reject(), domain.ErrInvalidTransition)

	p.Status = domain.PaymentPartial
	require.NoError(t, p.Reject())
	assert.Equal(t, domain.PaymentRejected, p.Status)

	_, err := p.Reverse()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	paidAt := time.Now()
	p = domain.Payment{Status: domain.PaymentPaid, AmountPaid: decimal.NewFromInt(400), PaidAt: &paidAt}
	cleared, err := p.Reverse()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(400).Equal(cleared))
	assert.Equal(t, domain.PaymentUnpaid, p.Status)
	assert.True(t, p.AmountPaid.IsZero())
	assert.Nil(t, p.PaidAt)
}

func TestNewPaymentRecord_Target(t *testing.T) {
	id := uuid.New()
	by := uuid.New()

	rec := domain.NewPaymentRecord(domain.PaymentTarget{Kind: domain.TargetPackage, ID: id}, decimal.NewFromInt(5), "cash", by, domain.RecordVerified, time.Now())

	assert.Nil(t, rec.BookingID)
	require.NotNil(t, rec.PackageInstanceID)
	assert.Equal(t, id, *rec.PackageInstanceID)
	assert.Equal(t, domain.PaymentTarget{Kind: domain.TargetPackage, ID: id}, rec.Target())
}
