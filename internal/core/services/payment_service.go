package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
	"github.com/srgjo27/studio_ledger/internal/metrics"
)

// PaymentService tracks payment evidence and settlement for bookings and
// package purchases. It never changes booking status.
type PaymentService struct {
	tx       ports.Transactor
	bookings ports.BookingRepository
	packages ports.PackageRepository
	payments ports.PaymentRepository
	notify   *Dispatcher
	log      *slog.Logger
	now      Clock
}

func NewPaymentService(repos Repositories, notify *Dispatcher, log *slog.Logger, clock Clock) *PaymentService {
	return &PaymentService{
		tx:       repos.Tx,
		bookings: repos.Bookings,
		packages: repos.Packages,
		payments: repos.Payments,
		notify:   notify,
		log:      log,
		now:      clock.orDefault(),
	}
}

// SubmitPaymentEvidence moves unpaid or rejected bookings to partial. The
// evidence is unverified, so paid_at stays empty and nothing is recorded.
func (s *PaymentService) SubmitPaymentEvidence(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, evidenceRef string) (*domain.Booking, error) {
	booking, err := s.updateBooking(ctx, bookingID, func(b *domain.Booking) (*domain.PaymentRecord, error) {
		if err := requireOwner(actor, b); err != nil {
			return nil, err
		}
		if b.IsCancelled() {
			return nil, &domain.TransitionError{Entity: "booking", From: string(b.Status), Action: "submit evidence for"}
		}
		return nil, b.Payment.SubmitEvidence(evidenceRef)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment evidence submitted",
		slog.String("booking_id", booking.ID.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	target := domain.PaymentTarget{Kind: domain.TargetBooking, ID: booking.ID}
	s.notify.dispatch(ctx, "payment.evidence_submitted", func(ctx context.Context, n ports.Notifier) error {
		return n.NotifyEvidenceSubmitted(ctx, target, evidenceRef)
	})
	return booking, nil
}

// VerifyPayment settles evidence awaiting review. A zero amount settles the
// invoiced amount.
func (s *PaymentService) VerifyPayment(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, amount decimal.Decimal, method string) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.verifyBooking(ctx, actor, bookingID, amount, method, false)
}

func (s *PaymentService) verifyBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, amount decimal.Decimal, method string, force bool) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.VerifyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))

	method = strings.TrimSpace(method)
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	var record *domain.PaymentRecord
	booking, err := s.updateBooking(ctx, bookingID, func(b *domain.Booking) (*domain.PaymentRecord, error) {
		if b.IsCancelled() {
			return nil, &domain.TransitionError{Entity: "booking", From: string(b.Status), Action: "verify payment for"}
		}
		paid, err := b.Payment.Verify(amount, s.now(), force)
		if err != nil {
			return nil, err
		}
		if !paid.IsPositive() {
			return nil, nil
		}
		record = domain.NewPaymentRecord(domain.PaymentTarget{Kind: domain.TargetBooking, ID: b.ID}, paid, method, actor.ID, domain.RecordVerified, s.now())
		return record, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.PaymentsVerified.WithLabelValues(string(domain.TargetBooking)).Inc()
	s.log.Info("payment verified",
		slog.String("booking_id", booking.ID.String()),
		slog.String("amount", booking.Payment.AmountPaid.String()),
		slog.String("method", method),
		slog.String("actor_id", actor.ID.String()),
	)
	s.notifyVerified(ctx, record)
	return booking, nil
}

func (s *PaymentService) RejectPayment(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	booking, err := s.updateBooking(ctx, bookingID, func(b *domain.Booking) (*domain.PaymentRecord, error) {
		return nil, b.Payment.Reject()
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment evidence rejected",
		slog.String("booking_id", booking.ID.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	return booking, nil
}

// reverseBooking takes a paid booking back to unpaid, clearing amount_paid
// and paid_at. The cleared amount is recorded as a correction.
func (s *PaymentService) reverseBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, method string) (*domain.Booking, error) {
	booking, err := s.updateBooking(ctx, bookingID, func(b *domain.Booking) (*domain.PaymentRecord, error) {
		cleared, err := b.Payment.Reverse()
		if err != nil {
			return nil, err
		}
		if !cleared.IsPositive() {
			return nil, nil
		}
		target := domain.PaymentTarget{Kind: domain.TargetBooking, ID: b.ID}
		return domain.NewPaymentRecord(target, cleared.Neg(), method, actor.ID, domain.RecordReversed, s.now()), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment reversed",
		slog.String("booking_id", booking.ID.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	return booking, nil
}

// updateBooking applies mutate to a locked booking and appends the record
// it returns, all in one transaction.
func (s *PaymentService) updateBooking(ctx context.Context, bookingID uuid.UUID, mutate func(b *domain.Booking) (*domain.PaymentRecord, error)) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("get booking %s: %w", bookingID, err)
		}
		record, err := mutate(b)
		if err != nil {
			return err
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.UpdateState(ctx, b); err != nil {
			return fmt.Errorf("update booking %s: %w", bookingID, err)
		}
		if record != nil {
			if err := s.payments.Append(ctx, record); err != nil {
				return fmt.Errorf("append payment record: %w", err)
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *PaymentService) ListBookingPayments(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) ([]domain.PaymentRecord, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if err := requireOwner(actor, b); err != nil {
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// =============================================================================
// PACKAGE PURCHASES
// =============================================================================

func (s *PaymentService) SubmitPackageEvidence(ctx context.Context, actor domain.Actor, instanceID uuid.UUID, evidenceRef string) (*domain.PackageInstance, error) {
	inst, err := s.updatePackage(ctx, instanceID, func(p *domain.PackageInstance) (*domain.PaymentRecord, error) {
		if err := requirePackageOwner(actor, p); err != nil {
			return nil, err
		}
		return nil, p.Payment.SubmitEvidence(evidenceRef)
	})
	if err != nil {
		return nil, err
	}

	target := domain.PaymentTarget{Kind: domain.TargetPackage, ID: inst.ID}
	s.notify.dispatch(ctx, "payment.evidence_submitted", func(ctx context.Context, n ports.Notifier) error {
		return n.NotifyEvidenceSubmitted(ctx, target, evidenceRef)
	})
	return inst, nil
}

func (s *PaymentService) VerifyPackagePayment(ctx context.Context, actor domain.Actor, instanceID uuid.UUID, amount decimal.Decimal, method string) (*domain.PackageInstance, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	var record *domain.PaymentRecord
	inst, err := s.updatePackage(ctx, instanceID, func(p *domain.PackageInstance) (*domain.PaymentRecord, error) {
		if p.Status == domain.PackageCancelled {
			return nil, &domain.TransitionError{Entity: "package", From: string(p.Status), Action: "verify payment for"}
		}
		paid, err := p.Payment.Verify(amount, s.now(), actor.Role == domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if !paid.IsPositive() {
			return nil, nil
		}
		record = domain.NewPaymentRecord(domain.PaymentTarget{Kind: domain.TargetPackage, ID: p.ID}, paid, method, actor.ID, domain.RecordVerified, s.now())
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsVerified.WithLabelValues(string(domain.TargetPackage)).Inc()
	s.log.Info("package payment verified",
		slog.String("package_id", inst.ID.String()),
		slog.String("amount", inst.Payment.AmountPaid.String()),
		slog.String("actor_id", actor.ID.String()),
	)
	s.notifyVerified(ctx, record)
	return inst, nil
}

func (s *PaymentService) RejectPackagePayment(ctx context.Context, actor domain.Actor, instanceID uuid.UUID) (*domain.PackageInstance, error) {
	if err := requirePrivileged(actor); err != nil {
		return nil, err
	}
	return s.updatePackage(ctx, instanceID, func(p *domain.PackageInstance) (*domain.PaymentRecord, error) {
		return nil, p.Payment.Reject()
	})
}

func (s *PaymentService) ListPackagePayments(ctx context.Context, actor domain.Actor, instanceID uuid.UUID) ([]domain.PaymentRecord, error) {
	p, err := s.packages.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("get package %s: %w", instanceID, err)
	}
	if err := requirePackageOwner(actor, p); err != nil {
		return nil, err
	}
	return s.payments.ListByPackage(ctx, instanceID)
}

func (s *PaymentService) updatePackage(ctx context.Context, instanceID uuid.UUID, mutate func(p *domain.PackageInstance) (*domain.PaymentRecord, error)) (*domain.PackageInstance, error) {
	var inst *domain.PackageInstance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.packages.GetInstanceForUpdate(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("get package %s: %w", instanceID, err)
		}
		record, err := mutate(p)
		if err != nil {
			return err
		}
		if err := s.packages.UpdatePayment(ctx, p); err != nil {
			return fmt.Errorf("update package %s: %w", instanceID, err)
		}
		if record != nil {
			if err := s.payments.Append(ctx, record); err != nil {
				return fmt.Errorf("append payment record: %w", err)
			}
		}
		inst = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *PaymentService) notifyVerified(ctx context.Context, record *domain.PaymentRecord) {
	if record == nil {
		return
	}
	rec := *record
	s.notify.dispatch(ctx, "payment.verified", func(ctx context.Context, n ports.Notifier) error {
		return n.NotifyPaymentVerified(ctx, &rec)
	})
}

func requirePackageOwner(actor domain.Actor, p *domain.PackageInstance) error {
	if actor.IsPrivileged() || (actor.IsMember() && p.MemberID == actor.ID) {
		return nil
	}
	return domain.ErrForbidden
}
