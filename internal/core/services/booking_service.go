package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
	"github.com/srgjo27/studio_ledger/internal/metrics"
)

type CreateBookingRequest struct {
	SessionID uuid.UUID
	Payer     domain.Payer
	Kind      domain.BookingKind
	// PackageInstanceID pins the package to charge. Admin only.
	PackageInstanceID *uuid.UUID
}

type BookingService struct {
	tx        ports.Transactor
	sessions  ports.SessionRepository
	bookings  ports.BookingRepository
	admission *AdmissionController
	ledger    *CreditLedger
	pricing   *PricingResolver
	notify    *Dispatcher
	log       *slog.Logger
	now       Clock
}

func NewBookingService(repos Repositories, cache ports.AvailabilityCache, notify *Dispatcher, log *slog.Logger, clock Clock) *BookingService {
	clock = clock.orDefault()
	return &BookingService{
		tx:        repos.Tx,
		sessions:  repos.Sessions,
		bookings:  repos.Bookings,
		admission: NewAdmissionController(repos.Sessions, cache, log),
		ledger:    NewCreditLedger(repos.Packages, clock),
		pricing:   NewPricingResolver(clock),
		notify:    notify,
		log:       log,
		now:       clock,
	}
}

// CreateBooking is the self-service entry point. Members book for
// themselves before the class starts; anyone may book a guest drop-in.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	if !actor.IsPrivileged() {
		if req.PackageInstanceID != nil {
			return nil, fmt.Errorf("%w: choosing a package is reserved to staff", domain.ErrForbidden)
		}
		if memberID, ok := domain.MemberOf(req.Payer); ok && (!actor.IsMember() || memberID != actor.ID) {
			return nil, domain.ErrForbidden
		}
	}
	return s.create(ctx, actor, req, !actor.IsPrivileged())
}

func (s *BookingService) create(ctx context.Context, actor domain.Actor, req CreateBookingRequest, selfService bool) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", req.SessionID.String()),
		attribute.String("kind", string(req.Kind)),
	)

	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown booking kind %q", domain.ErrValidation, req.Kind)
	}
	if err := domain.ValidatePayer(req.Payer); err != nil {
		return nil, err
	}
	memberID, isMember := domain.MemberOf(req.Payer)
	if req.Kind == domain.KindPackage && !isMember {
		return nil, fmt.Errorf("%w: guests cannot book with a package", domain.ErrValidation)
	}

	var booking *domain.Booking
	var reactivated bool

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()

		session, err := s.sessions.GetByID(ctx, req.SessionID)
		if err != nil {
			return fmt.Errorf("get session %s: %w", req.SessionID, err)
		}
		if session.IsCancelled {
			return domain.ErrSessionCancelled
		}
		if selfService && session.HasStarted(now) {
			return domain.ErrBookingClosed
		}

		var existing *domain.Booking
		if isMember {
			existing, err = s.bookings.GetByMemberAndSession(ctx, memberID, session.ID)
			if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
				return fmt.Errorf("find existing booking: %w", err)
			}
			if existing != nil && !existing.IsCancelled() {
				return domain.ErrAlreadyBooked
			}
		}

		b := existing
		if b == nil {
			b = &domain.Booking{
				ID:        uuid.New(),
				SessionID: session.ID,
				Payer:     req.Payer,
				Payment:   domain.Payment{Status: domain.PaymentUnpaid, AmountPaid: decimal.Zero},
				CreatedAt: now,
			}
		}

		if err := s.activate(ctx, b, session, req.Kind, req.PackageInstanceID, now); err != nil {
			return err
		}

		if existing != nil {
			if err := s.bookings.Reactivate(ctx, b); err != nil {
				return fmt.Errorf("reactivate booking %s: %w", b.ID, err)
			}
			reactivated = true
		} else if err := s.bookings.Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		booking = b
		return nil
	})
	if err != nil {
		metrics.BookingRejections.WithLabelValues(rejectionReason(err)).Inc()
		span.RecordError(err)
		return nil, err
	}

	s.admission.Invalidate(ctx, booking.SessionID)
	metrics.BookingsCreated.WithLabelValues(string(booking.Kind)).Inc()

	s.log.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("session_id", booking.SessionID.String()),
		slog.String("kind", string(booking.Kind)),
		slog.String("actor_id", actor.ID.String()),
		slog.Bool("reactivated", reactivated),
	)

	created := *booking
	s.notify.dispatch(ctx, "booking.created", func(ctx context.Context, n ports.Notifier) error {
		return n.NotifyBookingCreated(ctx, &created)
	})

	return booking, nil
}

// activate takes a seat and charges b for it. It runs inside the caller's
// transaction; any error rolls the seat back with it.
func (s *BookingService) activate(ctx context.Context, b *domain.Booking, session *domain.ClassSession, kind domain.BookingKind, explicit *uuid.UUID, now time.Time) error {
	if err := s.admission.TryReserveSeat(ctx, session.ID); err != nil {
		return err
	}
	b.SeatHeld = true
	b.Status = domain.BookingBooked
	b.IsAttended = false
	b.CancelledAt = nil
	b.UpdatedAt = now

	switch kind {
	case domain.KindPackage:
		memberID, ok := b.MemberID()
		if !ok {
			return fmt.Errorf("%w: guests cannot book with a package", domain.ErrValidation)
		}
		inst, err := s.ledger.ResolveForBooking(ctx, memberID, explicit)
		if err != nil {
			return err
		}
		if err := s.ledger.Consume(ctx, inst.ID); err != nil {
			return err
		}
		b.ChargePackage(inst.ID, now)
	case domain.KindDropIn:
		b.ChargeDropIn(s.pricing.PriceAt(session, now))
	default:
		return fmt.Errorf("%w: unknown booking kind %q", domain.ErrValidation, kind)
	}
	return nil
}

// CancelBooking is idempotent: cancelling a cancelled booking returns it
// unchanged. Members may only cancel their own upcoming bookings.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	guard := func(b *domain.Booking, session *domain.ClassSession, now time.Time) error {
		if err := requireOwner(actor, b); err != nil {
			return err
		}
		if actor.IsPrivileged() {
			return nil
		}
		if b.Status != domain.BookingBooked {
			return &domain.TransitionError{Entity: "booking", From: string(b.Status), Action: "cancel"}
		}
		if session.HasStarted(now) {
			return domain.ErrBookingClosed
		}
		return nil
	}
	return s.cancel(ctx, actor, bookingID, guard)
}

type cancelGuard func(b *domain.Booking, session *domain.ClassSession, now time.Time) error

func (s *BookingService) cancel(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, guard cancelGuard) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "BookingService.CancelBooking")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))

	var released *domain.Booking

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()

		current, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", bookingID, err)
		}
		if current.IsCancelled() {
			return requireOwner(actor, current)
		}

		session, err := s.sessions.GetByID(ctx, current.SessionID)
		if err != nil {
			return fmt.Errorf("get session %s: %w", current.SessionID, err)
		}
		if err := guard(current, session, now); err != nil {
			return err
		}

		prev, err := s.bookings.MarkCancelled(ctx, bookingID, now)
		if err != nil {
			return fmt.Errorf("cancel booking %s: %w", bookingID, err)
		}
		if prev == nil {
			return nil
		}

		if prev.SeatHeld {
			if err := s.admission.ReleaseSeat(ctx, prev.SessionID); err != nil {
				return err
			}
		}
		if prev.CreditConsumed && prev.PackageInstanceID != nil {
			if err := s.ledger.Refund(ctx, *prev.PackageInstanceID); err != nil {
				return err
			}
		}
		released = prev
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}

	if released == nil {
		return booking, nil
	}

	s.admission.Invalidate(ctx, booking.SessionID)
	metrics.BookingsCancelled.Inc()

	attrs := []any{
		slog.String("booking_id", booking.ID.String()),
		slog.String("actor_id", actor.ID.String()),
		slog.Bool("seat_released", released.SeatHeld),
		slog.Bool("credit_refunded", released.CreditConsumed),
	}
	if booking.Payment.AmountPaid.IsPositive() {
		attrs = append(attrs, slog.String("refund_due", booking.Payment.AmountPaid.String()))
	}
	s.log.Info("booking cancelled", attrs...)

	return booking, nil
}

// SetAttendance never touches seats or credits; they were committed at
// creation.
func (s *BookingService) SetAttendance(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, attended bool) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.update(ctx, bookingID, func(b *domain.Booking) error {
		return b.SetAttendance(attended)
	})
}

func (s *BookingService) MarkNoShow(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.update(ctx, bookingID, func(b *domain.Booking) error {
		return b.MarkNoShow()
	})
}

func (s *BookingService) update(ctx context.Context, bookingID uuid.UUID, mutate func(b *domain.Booking) error) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", bookingID, err)
		}
		if err := mutate(b); err != nil {
			return err
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.UpdateState(ctx, b); err != nil {
			return fmt.Errorf("update booking %s: %w", bookingID, err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if err := requireOwner(actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetOutstandingBalance reprices the booking at the current instant.
func (s *BookingService) GetOutstandingBalance(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (decimal.Decimal, error) {
	b, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	session, err := s.sessions.GetByID(ctx, b.SessionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get session %s: %w", b.SessionID, err)
	}
	return s.pricing.Outstanding(b, session), nil
}

func (s *BookingService) Availability(ctx context.Context, sessionID uuid.UUID) (*domain.Availability, error) {
	return s.admission.Availability(ctx, sessionID)
}

// reactivate brings a cancelled booking back with its previous kind. The
// seat and, for package bookings, a credit are taken again.
func (s *BookingService) reactivate(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()

		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", bookingID, err)
		}
		if !b.IsCancelled() {
			return &domain.TransitionError{Entity: "booking", From: string(b.Status), Action: "reactivate"}
		}
		session, err := s.sessions.GetByID(ctx, b.SessionID)
		if err != nil {
			return fmt.Errorf("get session %s: %w", b.SessionID, err)
		}

		if err := s.activate(ctx, b, session, b.Kind, nil, now); err != nil {
			return err
		}
		if err := s.bookings.Reactivate(ctx, b); err != nil {
			return fmt.Errorf("reactivate booking %s: %w", b.ID, err)
		}
		booking = b
		return nil
	})
	if err != nil {
		metrics.BookingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	s.admission.Invalidate(ctx, booking.SessionID)
	metrics.BookingsCreated.WithLabelValues(string(booking.Kind)).Inc()
	s.log.Info("booking reactivated",
		slog.String("booking_id", booking.ID.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	return booking, nil
}
