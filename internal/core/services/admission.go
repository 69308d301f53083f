package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
)

// AdmissionController is the single mutation path for booked_count.
type AdmissionController struct {
	sessions ports.SessionRepository
	cache    ports.AvailabilityCache
	log      *slog.Logger
}

func NewAdmissionController(sessions ports.SessionRepository, cache ports.AvailabilityCache, log *slog.Logger) *AdmissionController {
	return &AdmissionController{sessions: sessions, cache: cache, log: log}
}

func (a *AdmissionController) TryReserveSeat(ctx context.Context, sessionID uuid.UUID) error {
	if err := a.sessions.ReserveSeat(ctx, sessionID); err != nil {
		return fmt.Errorf("reserve seat in session %s: %w", sessionID, err)
	}
	return nil
}

// ReleaseSeat gives back a seat. Callers guard it with the booking's
// SeatHeld flag.
func (a *AdmissionController) ReleaseSeat(ctx context.Context, sessionID uuid.UUID) error {
	if err := a.sessions.ReleaseSeat(ctx, sessionID); err != nil {
		return fmt.Errorf("release seat in session %s: %w", sessionID, err)
	}
	return nil
}

func (a *AdmissionController) Availability(ctx context.Context, sessionID uuid.UUID) (*domain.Availability, error) {
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, sessionID)
		if err != nil {
			a.log.Warn("availability cache read failed",
				slog.String("session_id", sessionID.String()),
				slog.Any("error", err),
			)
		} else if ok {
			return cached, nil
		}
	}

	session, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	availability := domain.Availability{
		SessionID: session.ID,
		Capacity:  session.Capacity,
		SeatsLeft: session.SeatsLeft(),
	}
	if session.IsCancelled {
		availability.SeatsLeft = 0
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, availability); err != nil {
			a.log.Warn("availability cache write failed",
				slog.String("session_id", sessionID.String()),
				slog.Any("error", err),
			)
		}
	}
	return &availability, nil
}

// Invalidate drops the cached availability after a committed seat change.
func (a *AdmissionController) Invalidate(ctx context.Context, sessionID uuid.UUID) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, sessionID); err != nil {
		a.log.Warn("availability cache invalidation failed",
			slog.String("session_id", sessionID.String()),
			slog.Any("error", err),
		)
	}
}
