package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
	"github.com/ariefcatur/go-cart-checkout.git/internal/redisx"
)

type OrderApplier interface {
	ApplyPaymentEvent(ctx context.Context, orderID, outcome string) (orders.Status, bool, error)
}

type PaymentStore interface {
	UpdateStatusByIntent(ctx context.Context, intentID, status string) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service applies gateway outcomes to orders and payment rows. The gateway is
// an at-least-once notifier: the same outcome may arrive twice, or after the
// order already moved on, and both cases must degrade to a logged no-op.
type Service struct {
	Orders      OrderApplier
	Payments    PaymentStore
	Redis       *redis.Client // event dedup, optional
	Producer    Publisher     // order.status.changed, optional
	ServiceName string
}

// Apply is the shared path behind the webhook endpoint and the Kafka
// consumer. Safe to call repeatedly with the same event.
func (s *Service) Apply(ctx context.Context, ev orders.PaymentOutcomePayload) (orders.Status, bool, error) {
	rowStatus, ok := rowStatusFor(ev.Outcome)
	if !ok {
		log.Printf("payments: ignoring unknown outcome %q for order %s", ev.Outcome, ev.OrderID)
		return "", false, nil
	}

	status, changed, err := s.Orders.ApplyPaymentEvent(ctx, ev.OrderID, ev.Outcome)
	if err != nil {
		return "", false, err
	}
	if !changed {
		log.Printf("payments: outcome %q for order %s is a no-op (status %s)", ev.Outcome, ev.OrderID, status)
	}

	if ev.IntentID != "" && s.Payments != nil {
		if err := s.Payments.UpdateStatusByIntent(ctx, ev.IntentID, rowStatus); err != nil {
			return status, changed, fmt.Errorf("update payment row: %w", err)
		}
	}

	if changed && s.Producer != nil {
		s.publishStatusChanged(ev.OrderID, orders.StatusPending, status)
	}
	return status, changed, nil
}

// HandleMessage is the payment.events consumer handler. A nil return commits
// the offset; unknown orders are logged and committed so one bad event does
// not wedge the group.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Printf("payments: dropping undecodable event: %v", err)
		return nil
	}
	if env.EventType != orders.EventPaymentOutcome {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "payments", env.EventID)
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentOutcomePayload](env.Payload)
	if err != nil {
		log.Printf("payments: dropping event %s: %v", env.EventID, err)
		return nil
	}

	if _, _, err := s.Apply(ctx, p); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			log.Printf("payments: unknown order %s in event %s", p.OrderID, env.EventID)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) publishStatusChanged(orderID string, from, to orders.Status) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: orderID, From: from, To: to}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func rowStatusFor(outcome string) (string, bool) {
	switch outcome {
	case orders.OutcomeSucceeded:
		return StatusSucceeded, true
	case orders.OutcomeFailed:
		return StatusFailed, true
	case orders.OutcomeCanceledByGateway:
		return StatusCanceled, true
	}
	return "", false
}
