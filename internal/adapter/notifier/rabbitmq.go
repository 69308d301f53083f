package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

// Publisher sends JSON events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// EventNotifier turns ledger events into messages for downstream
// notification workers.
type EventNotifier struct {
	pub jsonPublisher
	now func() time.Time
}

func NewEventNotifier(pub jsonPublisher) *EventNotifier {
	return &EventNotifier{pub: pub, now: time.Now}
}

func (n *EventNotifier) NotifyBookingCreated(ctx context.Context, b *domain.Booking) error {
	evt := BookingCreated{
		BookingID:  b.ID.String(),
		SessionID:  b.SessionID.String(),
		Kind:       string(b.Kind),
		AmountDue:  b.Payment.AmountDue.StringFixed(2),
		OccurredAt: n.now(),
	}
	switch p := b.Payer.(type) {
	case domain.MemberPayer:
		evt.MemberID = p.MemberID.String()
	case domain.GuestPayer:
		evt.GuestName = p.Name
	}
	return n.pub.PublishJSON(ctx, RKBookingCreated, evt)
}

func (n *EventNotifier) NotifyEvidenceSubmitted(ctx context.Context, target domain.PaymentTarget, evidenceRef string) error {
	return n.pub.PublishJSON(ctx, RKEvidenceSubmitted, EvidenceSubmitted{
		Target:      string(target.Kind),
		TargetID:    target.ID.String(),
		EvidenceRef: evidenceRef,
		OccurredAt:  n.now(),
	})
}

func (n *EventNotifier) NotifyPaymentVerified(ctx context.Context, rec *domain.PaymentRecord) error {
	target := rec.Target()
	return n.pub.PublishJSON(ctx, RKPaymentVerified, PaymentVerified{
		RecordID:   rec.ID.String(),
		Target:     string(target.Kind),
		TargetID:   target.ID.String(),
		Amount:     rec.Amount.StringFixed(2),
		Method:     rec.Method,
		RecordedBy: rec.RecordedBy.String(),
		OccurredAt: rec.CreatedAt,
	})
}
