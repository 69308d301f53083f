package notifier

import (
	"context"
	"log/slog"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyBookingCreated(ctx context.Context, b *domain.Booking) error {
	n.log.InfoContext(ctx, "[notify] "+RKBookingCreated,
		slog.String("booking_id", b.ID.String()),
		slog.String("session_id", b.SessionID.String()),
		slog.String("kind", string(b.Kind)),
	)
	return nil
}

func (n *LogNotifier) NotifyEvidenceSubmitted(ctx context.Context, target domain.PaymentTarget, evidenceRef string) error {
	n.log.InfoContext(ctx, "[notify] "+RKEvidenceSubmitted,
		slog.String("target", string(target.Kind)),
		slog.String("target_id", target.ID.String()),
		slog.String("evidence_ref", evidenceRef),
	)
	return nil
}

func (n *LogNotifier) NotifyPaymentVerified(ctx context.Context, rec *domain.PaymentRecord) error {
	target := rec.Target()
	n.log.InfoContext(ctx, "[notify] "+RKPaymentVerified,
		slog.String("target", string(target.Kind)),
		slog.String("target_id", target.ID.String()),
		slog.String("amount", rec.Amount.String()),
	)
	return nil
}
