package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// Transactor runs fn as one all-or-nothing unit. Repository calls made with
// the ctx passed to fn join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRepository is the only writer of booked_count. ReserveSeat and
// ReleaseSeat are single conditional updates.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ClassSession) error
	GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ClassSession, error)
	ReserveSeat(ctx context.Context, sessionID uuid.UUID) error
	ReleaseSeat(ctx context.Context, sessionID uuid.UUID) error
}

// PackageRepository is the only writer of credits_remaining.
type PackageRepository interface {
	CreateDefinition(ctx context.Context, def *domain.PackageDefinition) error
	GetDefinition(ctx context.Context, definitionID uuid.UUID) (*domain.PackageDefinition, error)
	CreateInstance(ctx context.Context, inst *domain.PackageInstance) error
	GetInstance(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error)
	// GetInstanceForUpdate locks the row for the rest of the transaction.
	GetInstanceForUpdate(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error)
	// FindForBooking returns the member's usable instance expiring soonest,
	// or, when none is usable, the most recent active one so the caller
	// can report why. Returns domain.ErrNoActivePackage when the member has
	// no active instance at all.
	FindForBooking(ctx context.Context, memberID uuid.UUID, now time.Time) (*domain.PackageInstance, error)
	ConsumeCredit(ctx context.Context, instanceID uuid.UUID, now time.Time) error
	RefundCredit(ctx context.Context, instanceID uuid.UUID) error
	UpdatePayment(ctx context.Context, inst *domain.PackageInstance) error
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetByMemberAndSession(ctx context.Context, memberID, sessionID uuid.UUID) (*domain.Booking, error)
	// Reactivate rewrites a cancelled booking in place. It fails with
	// domain.ErrConcurrencyConflict if the booking is no longer cancelled.
	Reactivate(ctx context.Context, booking *domain.Booking) error
	// MarkCancelled moves a live booking to cancelled and returns it as it
	// was before the change. A booking that is already cancelled yields
	// (nil, nil) so only one caller ever releases its resources.
	MarkCancelled(ctx context.Context, bookingID uuid.UUID, at time.Time) (*domain.Booking, error)
	UpdateState(ctx context.Context, booking *domain.Booking) error
	CountActiveBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
}

// PaymentRepository is append-only.
type PaymentRepository interface {
	Append(ctx context.Context, record *domain.PaymentRecord) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentRecord, error)
	ListByPackage(ctx context.Context, instanceID uuid.UUID) ([]domain.PaymentRecord, error)
}
