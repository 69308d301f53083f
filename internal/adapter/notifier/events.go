package notifier

import "time"

const (
	RKBookingCreated    = "booking.created"
	RKEvidenceSubmitted = "payment.evidence_submitted"
	RKPaymentVerified   = "payment.verified"
)

type BookingCreated struct {
	BookingID  string    `json:"booking_id"`
	SessionID  string    `json:"session_id"`
	MemberID   string    `json:"member_id,omitempty"`
	GuestName  string    `json:"guest_name,omitempty"`
	Kind       string    `json:"kind"`
	AmountDue  string    `json:"amount_due"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EvidenceSubmitted struct {
	Target      string    `json:"target"`
	TargetID    string    `json:"target_id"`
	EvidenceRef string    `json:"evidence_ref"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type PaymentVerified struct {
	RecordID   string    `json:"record_id"`
	Target     string    `json:"target"`
	TargetID   string    `json:"target_id"`
	Amount     string    `json:"amount"`
	Method     string    `json:"method"`
	RecordedBy string    `json:"recorded_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
