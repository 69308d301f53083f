package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type published struct {
	key string
	v   any
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	f.sent = append(f.sent, published{key: key, v: v})
	return f.err
}

func TestEventNotifier_BookingCreated(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEventNotifier(pub)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	memberID := uuid.New()
	b := &domain.Booking{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		Payer:     domain.MemberPayer{MemberID: memberID},
		Kind:      domain.KindDropIn,
		Payment:   domain.Payment{AmountDue: decimal.NewFromInt(800)},
	}

	require.NoError(t, n.NotifyBookingCreated(context.Background(), b))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, RKBookingCreated, pub.sent[0].key)

	evt, ok := pub.sent[0].v.(BookingCreated)
	require.True(t, ok)
	assert.Equal(t, memberID.String(), evt.MemberID)
	assert.Equal(t, "800.00", evt.AmountDue)
	assert.Equal(t, fixed, evt.OccurredAt)
}

func TestEventNotifier_PaymentVerifiedTargetsPackage(t *testing.T) {
	pub := &fakePublisher{}
	n := NewEventNotifier(pub)

	instanceID := uuid.New()
	rec := domain.NewPaymentRecord(domain.PaymentTarget{Kind: domain.TargetPackage, ID: instanceID},
		decimal.NewFromInt(5000), "transfer", uuid.New(), domain.RecordVerified, time.Now())

	require.NoError(t, n.NotifyPaymentVerified(context.Background(), rec))
	evt := pub.sent[0].v.(PaymentVerified)
	assert.Equal(t, RKPaymentVerified, pub.sent[0].key)
	assert.Equal(t, "package", evt.Target)
	assert.Equal(t, instanceID.String(), evt.TargetID)
}

func TestEventNotifier_PropagatesPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := NewEventNotifier(pub)

	err := n.NotifyEvidenceSubmitted(context.Background(),
		domain.PaymentTarget{Kind: domain.TargetBooking, ID: uuid.New()}, "https://files.example.com/r.png")

	assert.EqualError(t, err, "channel closed")
}
