package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
)

// AdminService is the privileged surface. It skips self-service
// preconditions but goes through the same seat, credit and payment
// primitives as everyone else.
type AdminService struct {
	sessions ports.SessionRepository
	packages ports.PackageRepository
	bookings ports.BookingRepository
	booking  *BookingService
	payment  *PaymentService
	log      *slog.Logger
	now      Clock
}

func NewAdminService(repos Repositories, booking *BookingService, payment *PaymentService, log *slog.Logger, clock Clock) *AdminService {
	return &AdminService{
		sessions: repos.Sessions,
		packages: repos.Packages,
		bookings: repos.Bookings,
		booking:  booking,
		payment:  payment,
		log:      log,
		now:      clock.orDefault(),
	}
}

// CreateBooking books any member or guest, with an explicit kind, even
// after the class has started.
func (s *AdminService) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.booking.create(ctx, actor, req, false)
}

func (s *AdminService) ReactivateBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.booking.reactivate(ctx, actor, bookingID)
}

// CancelBooking also accepts attended and no-show bookings as a correction.
func (s *AdminService) CancelBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.booking.CancelBooking(ctx, actor, bookingID)
}

func (s *AdminService) SetAttendance(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, attended bool) (*domain.Booking, error) {
	return s.booking.SetAttendance(ctx, actor, bookingID, attended)
}

func (s *AdminService) MarkNoShow(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.booking.MarkNoShow(ctx, actor, bookingID)
}

// ForcePaymentStatus sets a booking's payment status through the tracker's
// transitions. Paid accepts unpaid and rejected payments; unpaid reverses a
// settlement.
func (s *AdminService) ForcePaymentStatus(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, status domain.PaymentStatus, amount decimal.Decimal, method string) (*domain.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(method) == "" {
		method = "manual"
	}

	switch status {
	case domain.PaymentPaid:
		return s.payment.verifyBooking(ctx, actor, bookingID, amount, method, true)
	case domain.PaymentUnpaid:
		return s.payment.reverseBooking(ctx, actor, bookingID, method)
	case domain.PaymentRejected:
		return s.payment.RejectPayment(ctx, actor, bookingID)
	default:
		return nil, fmt.Errorf("%w: payment status %q cannot be forced", domain.ErrValidation, status)
	}
}

// ActivatePackage sells a package definition to a member. The instance is
// usable right away; its payment is reconciled separately.
func (s *AdminService) ActivatePackage(ctx context.Context, actor domain.Actor, memberID, definitionID uuid.UUID) (*domain.PackageInstance, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	if memberID == uuid.Nil {
		return nil, fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}

	def, err := s.packages.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, fmt.Errorf("get package definition %s: %w", definitionID, err)
	}

	inst := domain.NewPackageInstance(def, memberID, s.now())
	if err := s.packages.CreateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("create package instance: %w", err)
	}

	s.log.Info("package activated",
		slog.String("package_id", inst.ID.String()),
		slog.String("member_id", memberID.String()),
		slog.String("definition_id", definitionID.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	return inst, nil
}

func (s *AdminService) CreatePackageDefinition(ctx context.Context, actor domain.Actor, def *domain.PackageDefinition) (*domain.PackageDefinition, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	if err := s.packages.CreateDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("create package definition: %w", err)
	}
	return def, nil
}

func (s *AdminService) CreateSession(ctx context.Context, actor domain.Actor, session *domain.ClassSession) (*domain.ClassSession, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch {
	case session.Capacity <= 0:
		return nil, fmt.Errorf("%w: capacity must be positive", domain.ErrValidation)
	case !session.EndsAt.After(session.StartsAt):
		return nil, fmt.Errorf("%w: class must end after it starts", domain.ErrValidation)
	case session.BasePrice.IsNegative():
		return nil, fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	case session.EarlyBirdPrice != nil && session.EarlyBirdPrice.IsNegative():
		return nil, fmt.Errorf("%w: early-bird price cannot be negative", domain.ErrValidation)
	}

	now := s.now()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.BookedCount = 0
	session.CreatedAt = now
	session.UpdatedAt = now
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// CheckCapacity reconciles booked_count with the bookings holding a seat.
// Drift is reported and logged, never repaired here.
func (s *AdminService) CheckCapacity(ctx context.Context, actor domain.Actor, sessionID uuid.UUID) (*domain.CapacityReport, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	active, err := s.bookings.CountActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count active bookings: %w", err)
	}

	report := &domain.CapacityReport{
		SessionID:      session.ID,
		Capacity:       session.Capacity,
		BookedCount:    session.BookedCount,
		ActiveBookings: active,
		Consistent:     session.BookedCount == active,
	}
	if !report.Consistent {
		s.log.Warn("booked count drift",
			slog.String("session_id", sessionID.String()),
			slog.Int("booked_count", session.BookedCount),
			slog.Int("active_bookings", active))
	}
	return report, nil
}
