package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, session_id, member_id, guest_name, guest_contact, kind, status,
	package_instance_id, payment_status, amount_due, amount_paid, evidence_ref, paid_at,
	is_attended, seat_held, credit_consumed, cancelled_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
	INSERT INTO bookings (` + bookingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	member, guestName, guestContact := payerColumns(b.Payer)
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.SessionID, member, guestName, guestContact, string(b.Kind), string(b.Status),
		nullUUID(b.PackageInstanceID), string(b.Payment.Status), b.Payment.AmountDue,
		b.Payment.AmountPaid, nullString(b.Payment.EvidenceRef), b.Payment.PaidAt,
		b.IsAttended, b.SeatHeld, b.CreditConsumed, b.CancelledAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyBooked
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.get(ctx, query, bookingID)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, bookingID)
}

func (r *BookingRepository) GetByMemberAndSession(ctx context.Context, memberID, sessionID uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE member_id = $1 AND session_id = $2`
	return r.get(ctx, query, memberID, sessionID)
}

func (r *BookingRepository) get(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) Reactivate(ctx context.Context, b *domain.Booking) error {
	query := `
	UPDATE bookings
	SET kind = $2,
		status = $3,
		package_instance_id = $4,
		payment_status = $5,
		amount_due = $6,
		amount_paid = $7,
		evidence_ref = $8,
		paid_at = $9,
		is_attended = $10,
		seat_held = $11,
		credit_consumed = $12,
		cancelled_at = NULL,
		updated_at = $13
	WHERE id = $1 AND status = 'cancelled'
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		b.ID, string(b.Kind), string(b.Status), nullUUID(b.PackageInstanceID),
		string(b.Payment.Status), b.Payment.AmountDue, b.Payment.AmountPaid,
		nullString(b.Payment.EvidenceRef), b.Payment.PaidAt, b.IsAttended,
		b.SeatHeld, b.CreditConsumed, b.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

// MarkCancelled locks the row, flips it to cancelled and returns the row as
// it was. Only the caller whose update matched sees the previous state.
func (r *BookingRepository) MarkCancelled(ctx context.Context, bookingID uuid.UUID, at time.Time) (*domain.Booking, error) {
	query := `
	WITH prev AS (
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	)
	UPDATE bookings b
	SET status = 'cancelled',
		is_attended = FALSE,
		seat_held = FALSE,
		credit_consumed = FALSE,
		cancelled_at = $2,
		updated_at = $2
	FROM prev
	WHERE b.id = prev.id AND prev.status <> 'cancelled'
	RETURNING prev.id, prev.session_id, prev.member_id, prev.guest_name, prev.guest_contact,
		prev.kind, prev.status, prev.package_instance_id, prev.payment_status, prev.amount_due,
		prev.amount_paid, prev.evidence_ref, prev.paid_at, prev.is_attended, prev.seat_held,
		prev.credit_consumed, prev.cancelled_at, prev.created_at, prev.updated_at
	`

	prev, err := scanBooking(conn(ctx, r.db).QueryRowContext(ctx, query, bookingID, at))
	if err == nil {
		return prev, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *BookingRepository) UpdateState(ctx context.Context, b *domain.Booking) error {
	query := `
	UPDATE bookings
	SET status = $2,
		is_attended = $3,
		payment_status = $4,
		amount_due = $5,
		amount_paid = $6,
		evidence_ref = $7,
		paid_at = $8,
		updated_at = $9
	WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		b.ID, string(b.Status), b.IsAttended, string(b.Payment.Status), b.Payment.AmountDue,
		b.Payment.AmountPaid, nullString(b.Payment.EvidenceRef), b.Payment.PaidAt, b.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) CountActiveBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE session_id = $1 AND status <> 'cancelled'`

	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	var member, instance uuid.NullUUID
	var guestName, guestContact, evidence sql.NullString
	var paidAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.SessionID,
		&member,
		&guestName,
		&guestContact,
		&b.Kind,
		&b.Status,
		&instance,
		&b.Payment.Status,
		&b.Payment.AmountDue,
		&b.Payment.AmountPaid,
		&evidence,
		&paidAt,
		&b.IsAttended,
		&b.SeatHeld,
		&b.CreditConsumed,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if member.Valid {
		b.Payer = domain.MemberPayer{MemberID: member.UUID}
	} else {
		b.Payer = domain.GuestPayer{Name: guestName.String, Contact: guestContact.String}
	}
	if instance.Valid {
		id := instance.UUID
		b.PackageInstanceID = &id
	}
	b.Payment.EvidenceRef = evidence.String
	b.Payment.PaidAt = timePtr(paidAt)
	b.CancelledAt = timePtr(cancelledAt)
	return &b, nil
}

func payerColumns(p domain.Payer) (uuid.NullUUID, sql.NullString, sql.NullString) {
	switch v := p.(type) {
	case domain.MemberPayer:
		return uuid.NullUUID{UUID: v.MemberID, Valid: true}, sql.NullString{}, sql.NullString{}
	case domain.GuestPayer:
		return uuid.NullUUID{}, nullString(v.Name), nullString(v.Contact)
	}
	return uuid.NullUUID{}, sql.NullString{}, sql.NullString{}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
