package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingKind string

const (
	KindPackage BookingKind = "package"
	KindDropIn  BookingKind = "dropin"
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
	BookingNoShow    BookingStatus = "no_show"
)

// Booking is never deleted; cancellation is a status change.
//
// SeatHeld and CreditConsumed record what this booking took from the
// session and the package, so cancellation gives back exactly that.
type Booking struct {
	ID                uuid.UUID
	SessionID         uuid.UUID
	Payer             Payer
	Kind              BookingKind
	Status            BookingStatus
	PackageInstanceID *uuid.UUID
	Payment           Payment
	IsAttended        bool
	SeatHeld          bool
	CreditConsumed    bool
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (k BookingKind) Valid() bool {
	return k == KindPackage || k == KindDropIn
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingCancelled
}

func (b *Booking) MemberID() (uuid.UUID, bool) {
	return MemberOf(b.Payer)
}

// ChargePackage marks b as paid from a package; nothing is owed.
func (b *Booking) ChargePackage(instanceID uuid.UUID, now time.Time) {
	id := instanceID
	b.Kind = KindPackage
	b.PackageInstanceID = &id
	b.CreditConsumed = true
	b.Payment.AmountDue = decimal.Zero
	b.Payment.Status = PaymentPaid
	if b.Payment.PaidAt == nil {
		paidAt := now
		b.Payment.PaidAt = &paidAt
	}
}

// ChargeDropIn invoices price. Money already received on an earlier life of
// the booking is kept and decides the starting status.
func (b *Booking) ChargeDropIn(price decimal.Decimal) {
	b.Kind = KindDropIn
	b.PackageInstanceID = nil
	b.CreditConsumed = false
	b.Payment.AmountDue = price
	switch {
	case b.Payment.AmountPaid.IsPositive() && !b.Payment.AmountPaid.LessThan(price):
		b.Payment.Status = PaymentPaid
	case b.Payment.EvidenceRef != "" && b.Payment.Status == PaymentPartial:
	default:
		b.Payment.Status = PaymentUnpaid
	}
	if b.Payment.Status != PaymentPaid {
		b.Payment.PaidAt = nil
	}
}

func (b *Booking) SetAttendance(attended bool) error {
	switch b.Status {
	case BookingBooked, BookingAttended, BookingNoShow:
	default:
		return &TransitionError{Entity: "booking", From: string(b.Status), Action: "mark attendance of"}
	}
	b.IsAttended = attended
	if attended {
		b.Status = BookingAttended
	} else {
		b.Status = BookingBooked
	}
	return nil
}

func (b *Booking) MarkNoShow() error {
	if b.Status != BookingBooked {
		return &TransitionError{Entity: "booking", From: string(b.Status), Action: "mark no-show on"}
	}
	b.Status = BookingNoShow
	b.IsAttended = false
	return nil
}

type DisplayStatus string

const (
	DisplayIncluded            DisplayStatus = "included"
	DisplayPaid                DisplayStatus = "paid"
	DisplayPendingVerification DisplayStatus = "pending_verification"
	DisplayRejected            DisplayStatus = "rejected"
	DisplayPartiallyPaid       DisplayStatus = "partially_paid"
	DisplayUnpaid              DisplayStatus = "unpaid"
	DisplayRefundDue           DisplayStatus = "refund_due"
	DisplayVoid                DisplayStatus = "void"
)

// DerivePaymentState is the single place presentation layers get a payment
// badge from.
func DerivePaymentState(b *Booking) DisplayStatus {
	if b.Status == BookingCancelled {
		if b.Payment.AmountPaid.IsPositive() {
			return DisplayRefundDue
		}
		return DisplayVoid
	}
	if b.Kind == KindPackage {
		return DisplayIncluded
	}
	switch b.Payment.Status {
	case PaymentPaid:
		if b.Payment.Settled() {
			return DisplayPaid
		}
		return DisplayPartiallyPaid
	case PaymentPartial:
		return DisplayPendingVerification
	case PaymentRejected:
		return DisplayRejected
	}
	if b.Payment.AmountPaid.IsPositive() {
		return DisplayPartiallyPaid
	}
	return DisplayUnpaid
}
