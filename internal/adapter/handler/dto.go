package handler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type GuestDTO struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type CreateBookingRequest struct {
	SessionID         uuid.UUID  `json:"session_id"`
	Kind              string     `json:"kind"`
	MemberID          *uuid.UUID `json:"member_id,omitempty"`
	Guest             *GuestDTO  `json:"guest,omitempty"`
	PackageInstanceID *uuid.UUID `json:"package_instance_id,omitempty"`
}

// payer picks the payer named in the request. A member calling without
// naming anyone books for themselves.
func (r CreateBookingRequest) payer(actor domain.Actor) (domain.Payer, error) {
	switch {
	case r.MemberID != nil && r.Guest != nil:
		return nil, fmt.Errorf("%w: set either member_id or guest", domain.ErrValidation)
	case r.Guest != nil:
		return domain.GuestPayer{Name: r.Guest.Name, Contact: r.Guest.Contact}, nil
	case r.MemberID != nil:
		return domain.MemberPayer{MemberID: *r.MemberID}, nil
	case actor.IsMember():
		return domain.MemberPayer{MemberID: actor.ID}, nil
	}
	return nil, fmt.Errorf("%w: payer is required", domain.ErrValidation)
}

type EvidenceRequest struct {
	EvidenceRef string `json:"evidence_ref"`
}

type VerifyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type AttendanceRequest struct {
	Attended bool `json:"attended"`
}

type ForcePaymentRequest struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type CreateSessionRequest struct {
	Title             string           `json:"title"`
	Capacity          int              `json:"capacity"`
	StartsAt          time.Time        `json:"starts_at"`
	EndsAt            time.Time        `json:"ends_at"`
	BasePrice         decimal.Decimal  `json:"base_price"`
	EarlyBirdPrice    *decimal.Decimal `json:"early_bird_price,omitempty"`
	EarlyBirdDeadline *time.Time       `json:"early_bird_deadline,omitempty"`
}

type CreatePackageDefinitionRequest struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Credits      *int            `json:"credits,omitempty"`
	DurationDays int             `json:"duration_days"`
	Price        decimal.Decimal `json:"price"`
}

type ActivatePackageRequest struct {
	MemberID     uuid.UUID `json:"member_id"`
	DefinitionID uuid.UUID `json:"definition_id"`
}

type PaymentDTO struct {
	Status      string          `json:"status"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	EvidenceRef string          `json:"evidence_ref,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

type BookingResponse struct {
	ID                uuid.UUID  `json:"id"`
	SessionID         uuid.UUID  `json:"session_id"`
	MemberID          *uuid.UUID `json:"member_id,omitempty"`
	Guest             *GuestDTO  `json:"guest,omitempty"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	PackageInstanceID *uuid.UUID `json:"package_instance_id,omitempty"`
	Payment           PaymentDTO `json:"payment"`
	PaymentState      string     `json:"payment_state"`
	IsAttended        bool       `json:"is_attended"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type BalanceResponse struct {
	BookingID   uuid.UUID       `json:"booking_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type PackageResponse struct {
	ID               uuid.UUID  `json:"id"`
	DefinitionID     uuid.UUID  `json:"definition_id"`
	MemberID         uuid.UUID  `json:"member_id"`
	Type             string     `json:"type"`
	CreditsRemaining *int       `json:"credits_remaining,omitempty"`
	ExpireAt         time.Time  `json:"expire_at"`
	Status           string     `json:"status"`
	Payment          PaymentDTO `json:"payment"`
}

type PackageDefinitionResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Credits      *int            `json:"credits,omitempty"`
	DurationDays int             `json:"duration_days"`
	Price        decimal.Decimal `json:"price"`
}

type SessionResponse struct {
	ID                uuid.UUID        `json:"id"`
	Title             string           `json:"title"`
	Capacity          int              `json:"capacity"`
	BookedCount       int              `json:"booked_count"`
	StartsAt          time.Time        `json:"starts_at"`
	EndsAt            time.Time        `json:"ends_at"`
	BasePrice         decimal.Decimal  `json:"base_price"`
	EarlyBirdPrice    *decimal.Decimal `json:"early_bird_price,omitempty"`
	EarlyBirdDeadline *time.Time       `json:"early_bird_deadline,omitempty"`
	IsCancelled       bool             `json:"is_cancelled"`
}

type PaymentRecordResponse struct {
	ID         uuid.UUID       `json:"id"`
	Target     string          `json:"target"`
	TargetID   uuid.UUID       `json:"target_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toPaymentDTO(p domain.Payment) PaymentDTO {
	return PaymentDTO{
		Status:      string(p.Status),
		AmountDue:   p.AmountDue,
		AmountPaid:  p.AmountPaid,
		EvidenceRef: p.EvidenceRef,
		PaidAt:      p.PaidAt,
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                b.ID,
		SessionID:         b.SessionID,
		Kind:              string(b.Kind),
		Status:            string(b.Status),
		PackageInstanceID: b.PackageInstanceID,
		Payment:           toPaymentDTO(b.Payment),
		PaymentState:      string(domain.DerivePaymentState(b)),
		IsAttended:        b.IsAttended,
		CancelledAt:       b.CancelledAt,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	switch p := b.Payer.(type) {
	case domain.MemberPayer:
		id := p.MemberID
		resp.MemberID = &id
	case domain.GuestPayer:
		resp.Guest = &GuestDTO{Name: p.Name, Contact: p.Contact}
	}
	return resp
}

func toPackageResponse(p *domain.PackageInstance) PackageResponse {
	return PackageResponse{
		ID:               p.ID,
		DefinitionID:     p.DefinitionID,
		MemberID:         p.MemberID,
		Type:             string(p.Type),
		CreditsRemaining: p.CreditsRemaining,
		ExpireAt:         p.ExpireAt,
		Status:           string(p.Status),
		Payment:          toPaymentDTO(p.Payment),
	}
}

func toSessionResponse(s *domain.ClassSession) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		Title:             s.Title,
		Capacity:          s.Capacity,
		BookedCount:       s.BookedCount,
		StartsAt:          s.StartsAt,
		EndsAt:            s.EndsAt,
		BasePrice:         s.BasePrice,
		EarlyBirdPrice:    s.EarlyBirdPrice,
		EarlyBirdDeadline: s.EarlyBirdDeadline,
		IsCancelled:       s.IsCancelled,
	}
}

func toRecordResponses(records []domain.PaymentRecord) []PaymentRecordResponse {
	out := make([]PaymentRecordResponse, 0, len(records))
	for i := range records {
		target := records[i].Target()
		out = append(out, PaymentRecordResponse{
			ID:         records[i].ID,
			Target:     string(target.Kind),
			TargetID:   target.ID,
			Amount:     records[i].Amount,
			Method:     records[i].Method,
			RecordedBy: records[i].RecordedBy,
			Status:     string(records[i].Status),
			CreatedAt:  records[i].CreatedAt,
		})
	}
	return out
}
