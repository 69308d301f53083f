package ports

import (
	"context"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// Notifier is best-effort. Errors are logged by the caller and never undo
// the ledger change that triggered the notification.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, booking *domain.Booking) error
	NotifyEvidenceSubmitted(ctx context.Context, target domain.PaymentTarget, evidenceRef string) error
	NotifyPaymentVerified(ctx context.Context, record *domain.PaymentRecord) error
}
