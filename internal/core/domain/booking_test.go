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

func TestDerivePaymentState(t *testing.T) {
	money := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	tests := []struct {
		name    string
		booking domain.Booking
		want    domain.DisplayStatus
	}{
		{
			name:    "package booking",
			booking: domain.Booking{Kind: domain.KindPackage, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentPaid}},
			want:    domain.DisplayIncluded,
		},
		{
			name:    "attended package booking",
			booking: domain.Booking{Kind: domain.KindPackage, Status: domain.BookingAttended},
			want:    domain.DisplayIncluded,
		},
		{
			name:    "settled drop-in",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentPaid, AmountPaid: money(1000)}},
			want:    domain.DisplayPaid,
		},
		{
			name:    "verified for less than due",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentPaid, AmountDue: money(1000), AmountPaid: money(500)}},
			want:    domain.DisplayPartiallyPaid,
		},
		{
			name:    "evidence awaiting review",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentPartial}},
			want:    domain.DisplayPendingVerification,
		},
		{
			name:    "evidence rejected",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingNoShow, Payment: domain.Payment{Status: domain.PaymentRejected}},
			want:    domain.DisplayRejected,
		},
		{
			name:    "money received but short",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentUnpaid, AmountPaid: money(200)}},
			want:    domain.DisplayPartiallyPaid,
		},
		{
			name:    "nothing paid",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingBooked, Payment: domain.Payment{Status: domain.PaymentUnpaid}},
			want:    domain.DisplayUnpaid,
		},
		{
			name:    "cancelled after paying",
			booking: domain.Booking{Kind: domain.KindDropIn, Status: domain.BookingCancelled, Payment: domain.Payment{Status: domain.PaymentPaid, AmountPaid: money(1000)}},
			want:    domain.DisplayRefundDue,
		},
		{
			name:    "cancelled package booking",
			booking: domain.Booking{Kind: domain.KindPackage, Status: domain.BookingCancelled, Payment: domain.Payment{Status: domain.PaymentPaid}},
			want:    domain.DisplayVoid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.booking
			assert.Equal(t, tt.want, domain.DerivePaymentState(&b))
		})
	}
}

func TestBooking_ChargeDropIn_KeepsEarlierMoney(t *testing.T) {
	price := decimal.NewFromInt(1000)

	t.Run("fully covered", func(t *testing.T) {
		b := domain.Booking{Payment: domain.Payment{Status: domain.PaymentPaid, AmountPaid: price}}
		b.ChargeDropIn(price)
		assert.Equal(t, domain.PaymentPaid, b.Payment.Status)
		assert.False(t, b.CreditConsumed)
		assert.Nil(t, b.PackageInstanceID)
	})

	t.Run("short", func(t *testing.T) {
		b := domain.Booking{Payment: domain.Payment{Status: domain.PaymentPaid, AmountPaid: decimal.NewFromInt(800)}}
		b.ChargeDropIn(price)
		assert.Equal(t, domain.PaymentUnpaid, b.Payment.Status)
		assert.True(t, price.Equal(b.Payment.AmountDue))
	})

	t.Run("package settlement time is dropped", func(t *testing.T) {
		paidAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		b := domain.Booking{Kind: domain.KindPackage, Payment: domain.Payment{Status: domain.PaymentPaid, PaidAt: &paidAt}}
		b.ChargeDropIn(price)
		assert.Equal(t, domain.PaymentUnpaid, b.Payment.Status)
		assert.Nil(t, b.Payment.PaidAt)
	})

	t.Run("pending evidence survives", func(t *testing.T) {
		b := domain.Booking{Payment: domain.Payment{Status: domain.PaymentPartial, EvidenceRef: "https://x.example/r"}}
		b.ChargeDropIn(price)
		assert.Equal(t, domain.PaymentPartial, b.Payment.Status)
	})
}

func TestBooking_ChargePackage(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	instanceID := uuid.New()
	b := domain.Booking{Kind: domain.KindDropIn, Payment: domain.Payment{Status: domain.PaymentUnpaid, AmountDue: decimal.NewFromInt(1000)}}

	b.ChargePackage(instanceID, now)

	assert.Equal(t, domain.KindPackage, b.Kind)
	assert.True(t, b.CreditConsumed)
	require.NotNil(t, b.PackageInstanceID)
	assert.Equal(t, instanceID, *b.PackageInstanceID)
	assert.True(t, b.Payment.AmountDue.IsZero())
	assert.Equal(t, domain.PaymentPaid, b.Payment.Status)
	assert.Equal(t, now, *b.Payment.PaidAt)
}

func TestBooking_AttendanceTransitions(t *testing.T) {
	b := domain.Booking{Status: domain.BookingBooked}

	require.NoError(t, b.SetAttendance(true))
	assert.Equal(t, domain.BookingAttended, b.Status)
	assert.True(t, b.IsAttended)

	assert.ErrorIs(t, b.MarkNoShow(), domain.ErrInvalidTransition)

	require.NoError(t, b.SetAttendance(false))
	assert.Equal(t, domain.BookingBooked, b.Status)

	require.NoError(t, b.MarkNoShow())
	assert.Equal(t, domain.BookingNoShow, b.Status)

	require.NoError(t, b.SetAttendance(true), "a late arrival can be corrected")
	assert.Equal(t, domain.BookingAttended, b.Status)

	cancelled := domain.Booking{Status: domain.BookingCancelled}
	assert.ErrorIs(t, cancelled.SetAttendance(true), domain.ErrInvalidTransition)
	assert.ErrorIs(t, cancelled.MarkNoShow(), domain.ErrInvalidTransition)
}

func TestValidatePayer(t *testing.T) {
	assert.NoError(t, domain.ValidatePayer(domain.MemberPayer{MemberID: uuid.New()}))
	assert.NoError(t, domain.ValidatePayer(domain.GuestPayer{Name: "Ayu", Contact: "ayu@example.com"}))

	assert.ErrorIs(t, domain.ValidatePayer(domain.MemberPayer{}), domain.ErrValidation)
	assert.ErrorIs(t, domain.ValidatePayer(domain.GuestPayer{Name: "Ayu"}), domain.ErrValidation)
	assert.ErrorIs(t, domain.ValidatePayer(domain.GuestPayer{Name: " ", Contact: "x"}), domain.ErrValidation)
	assert.ErrorIs(t, domain.ValidatePayer(nil), domain.ErrValidation)

	id, ok := domain.MemberOf(domain.GuestPayer{Name: "Ayu", Contact: "x"})
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)
}
