package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
)

var tracer = otel.Tracer("github.com/srgjo27/studio_ledger/internal/core/services")

// Repositories groups the storage ports every service shares.
type Repositories struct {
	Tx       ports.Transactor
	Sessions ports.SessionRepository
	Packages ports.PackageRepository
	Bookings ports.BookingRepository
	Payments ports.PaymentRepository
}

type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Dispatcher fires notifications in the background after a ledger change
// has committed.
type Dispatcher struct {
	notifier ports.Notifier
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier ports.Notifier, log *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, log: log}
}

func (d *Dispatcher) dispatch(ctx context.Context, event string, fn func(ctx context.Context, n ports.Notifier) error) {
	if d == nil || d.notifier == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := fn(context.WithoutCancel(ctx), d.notifier); err != nil {
			d.log.Warn("notification failed",
				slog.String("event", event),
				slog.Any("error", err),
			)
		}
	}()
}

// Wait blocks until every dispatched notification has returned.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func requirePrivileged(actor domain.Actor) error {
	if !actor.IsPrivileged() {
		return domain.ErrForbidden
	}
	return nil
}

func requireAdmin(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// requireOwner lets privileged actors through and members only for their
// own bookings.
func requireOwner(actor domain.Actor, b *domain.Booking) error {
	if actor.IsPrivileged() {
		return nil
	}
	memberID, ok := b.MemberID()
	if !ok || !actor.IsMember() || memberID != actor.ID {
		return domain.ErrForbidden
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrNoCreditsRemaining):
		return "no_credits_remaining"
	case errors.Is(err, domain.ErrPackageExpired):
		return "package_expired"
	case errors.Is(err, domain.ErrPackageInactive):
		return "package_inactive"
	case errors.Is(err, domain.ErrNoActivePackage):
		return "no_active_package"
	case errors.Is(err, domain.ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrBookingClosed), errors.Is(err, domain.ErrSessionCancelled):
		return "closed"
	default:
		return "other"
	}
}
