package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// AvailabilityCache is a read-through cache of session seat counts. It is
// never consulted for admission decisions.
type AvailabilityCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.Availability, bool, error)
	Set(ctx context.Context, availability domain.Availability) error
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}
