package domain

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is the reconciliation state shared by bookings and package
// purchases. Partial means evidence was submitted but not yet verified.
type Payment struct {
	Status      PaymentStatus
	AmountDue   decimal.Decimal
	AmountPaid  decimal.Decimal
	EvidenceRef string
	PaidAt      *time.Time
}

// Settled reports a verified payment that covers AmountDue. A verification for
// less than the amount due leaves the rest owing.
func (p *Payment) Settled() bool {
	return p.Status == PaymentPaid && !p.AmountPaid.LessThan(p.AmountDue)
}

func (p *Payment) SubmitEvidence(ref string) error {
	u, err := url.Parse(ref)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: evidence reference must be an absolute url", ErrValidation)
	}

	switch p.Status {
	case PaymentUnpaid, PaymentRejected, PaymentPartial:
	default:
		return &TransitionError{Entity: "payment", From: string(p.Status), Action: "submit evidence for"}
	}

	p.Status = PaymentPartial
	p.EvidenceRef = ref
	return nil
}

// Verify settles the payment. A zero amount settles AmountDue. Only evidence
// awaiting review can be verified unless force is set, which also accepts
// unpaid and rejected payments.
func (p *Payment) Verify(amount decimal.Decimal, now time.Time, force bool) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}

	switch p.Status {
	case PaymentPartial:
	case PaymentUnpaid, PaymentRejected:
		if !force {
			return decimal.Zero, &TransitionError{Entity: "payment", From: string(p.Status), Action: "verify"}
		}
	default:
		return decimal.Zero, &TransitionError{Entity: "payment", From: string(p.Status), Action: "verify"}
	}

	if amount.IsZero() {
		amount = p.AmountDue
	}
	p.Status = PaymentPaid
	p.AmountPaid = amount
	paidAt := now
	p.PaidAt = &paidAt
	return amount, nil
}

func (p *Payment) Reject() error {
	if p.Status != PaymentPartial {
		return &TransitionError{Entity: "payment", From: string(p.Status), Action: "reject"}
	}
	p.Status = PaymentRejected
	return nil
}

// Reverse takes a settled payment back to unpaid and returns the amount that
// was cleared.
func (p *Payment) Reverse() (decimal.Decimal, error) {
	if p.Status != PaymentPaid {
		return decimal.Zero, &TransitionError{Entity: "payment", From: string(p.Status), Action: "reverse"}
	}
	cleared := p.AmountPaid
	p.Status = PaymentUnpaid
	p.AmountPaid = decimal.Zero
	p.PaidAt = nil
	return cleared, nil
}

type PaymentRecordStatus string

const (
	RecordVerified PaymentRecordStatus = "verified"
	RecordReversed PaymentRecordStatus = "reversed"
)

// PaymentRecord is an append-only audit entry for a money-moving event.
// Exactly one of BookingID and PackageInstanceID is set.
type PaymentRecord struct {
	ID                uuid.UUID
	BookingID         *uuid.UUID
	PackageInstanceID *uuid.UUID
	Amount            decimal.Decimal
	Method            string
	RecordedBy        uuid.UUID
	Status            PaymentRecordStatus
	CreatedAt         time.Time
}

type PaymentTargetKind string

const (
	TargetBooking PaymentTargetKind = "booking"
	TargetPackage PaymentTargetKind = "package"
)

// PaymentTarget names what a payment settles.
type PaymentTarget struct {
	Kind PaymentTargetKind
	ID   uuid.UUID
}

func (r *PaymentRecord) Target() PaymentTarget {
	if r.BookingID != nil {
		return PaymentTarget{Kind: TargetBooking, ID: *r.BookingID}
	}
	if r.PackageInstanceID != nil {
		return PaymentTarget{Kind: TargetPackage, ID: *r.PackageInstanceID}
	}
	return PaymentTarget{}
}

func NewPaymentRecord(target PaymentTarget, amount decimal.Decimal, method string, recordedBy uuid.UUID, status PaymentRecordStatus, now time.Time) *PaymentRecord {
	rec := &PaymentRecord{
		ID:         uuid.New(),
		Amount:     amount,
		Method:     method,
		RecordedBy: recordedBy,
		Status:     status,
		CreatedAt:  now,
	}
	id := target.ID
	switch target.Kind {
	case TargetBooking:
		rec.BookingID = &id
	case TargetPackage:
		rec.PackageInstanceID = &id
	}
	return rec
}
