// Package checkout drains a user's ephemeral cart into a durable order. The
// cart's own stock checks are advisory; the real decision happens inside the
// order repo's transaction, and the cart is only cleared once that commit has
// succeeded, so a failed checkout leaves the cart intact for a retry.
package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
)

var ErrEmptyCart = errors.New("your cart is empty")

type CartStore interface {
	Items(ctx context.Context, userID string) (map[string]int, error)
	Clear(ctx context.Context, userID string) error
}

type OrderCreator interface {
	CreateFromCart(ctx context.Context, userID string, items map[string]int) (*orders.Order, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Cart        CartStore
	Orders      OrderCreator
	Producer    Publisher
	ServiceName string
}

func (s *Service) Checkout(ctx context.Context, userID string) (*orders.Order, error) {
	items, err := s.Cart.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o, err := s.Orders.CreateFromCart(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	// Durable commit happened; clearing the cart afterwards is safe even if
	// it fails (the next checkout would just see a stale cart and fail on
	// stock, never double-sell).
	if err := s.Cart.Clear(ctx, userID); err != nil {
		log.Printf("checkout: clear cart for %s: %v", userID, err)
	}

	s.publishCreated(o)
	return o, nil
}

func (s *Service) publishCreated(o *orders.Order) {
	if s.Producer == nil {
		return
	}
	items := make([]orders.ItemPrice, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orders.ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    o.ID,
			UserID:     o.UserID,
			Items:      items,
			TotalCents: o.TotalCents,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
