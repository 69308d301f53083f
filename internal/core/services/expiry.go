package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/srgjo27/studio_ledger/internal/core/ports"
	"github.com/srgjo27/studio_ledger/internal/metrics"
)

// ExpirySweeper flips lapsed package instances to expired. Booking never
// relies on it: usability is always computed from expire_at.
type ExpirySweeper struct {
	packages ports.PackageRepository
	interval time.Duration
	log      *slog.Logger
	now      Clock
}

func NewExpirySweeper(packages ports.PackageRepository, interval time.Duration, log *slog.Logger, clock Clock) *ExpirySweeper {
	return &ExpirySweeper{packages: packages, interval: interval, log: log, now: clock.orDefault()}
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("package expiry sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("package expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	n, err := s.packages.ExpireStale(ctx, s.now())
	if err != nil {
		s.log.Error("failed to expire packages", slog.Any("error", err))
		return 0
	}
	if n > 0 {
		metrics.PackagesExpired.Add(float64(n))
		s.log.Info("expired packages", slog.Int("count", n))
	}
	return n
}
