package checkout

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-cart-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-cart-checkout.git/internal/orders"
	"github.com/ariefcatur/go-cart-checkout.git/internal/stock"
)

type mockCart struct {
	items   map[string]int
	cleared bool
}

func (m *mockCart) Items(ctx context.Context, userID string) (map[string]int, error) {
	return m.items, nil
}

func (m *mockCart) Clear(ctx context.Context, userID string) error {
	m.cleared = true
	return nil
}

type mockOrders struct {
	fail    error
	created *orders.Order
	got     map[string]int
}

func (m *mockOrders) CreateFromCart(ctx context.Context, userID string, items map[string]int) (*orders.Order, error) {
	m.got = items
	if m.fail != nil {
		return nil, m.fail
	}
	return m.created, nil
}

type mockPublisher struct {
	values [][]byte
}

func (m *mockPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	m.values = append(m.values, value)
}

func TestCheckout_EmptyCart(t *testing.T) {
	c := &mockCart{items: map[string]int{}}
	o := &mockOrders{}
	svc := &Service{Cart: c, Orders: o}

	_, err := svc.Checkout(context.Background(), "user-1")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if o.got != nil {
		t.Error("no order must be created for an empty cart")
	}
	if c.cleared {
		t.Error("cart must not be cleared")
	}
}

func TestCheckout_FailureLeavesCartUntouched(t *testing.T) {
	c := &mockCart{items: map[string]int{"p1": 2, "p2": 100}}
	o := &mockOrders{fail: &stock.InsufficientError{ProductID: "p2", Name: "thing", Requested: 100, Available: 50}}
	pub := &mockPublisher{}
	svc := &Service{Cart: c, Orders: o, Producer: pub}

	_, err := svc.Checkout(context.Background(), "user-1")
	var insufficient *stock.InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientError, got %v", err)
	}
	if insufficient.Available != 50 {
		t.Errorf("error must carry remaining stock, got %d", insufficient.Available)
	}
	if c.cleared {
		t.Error("cart must survive a failed checkout")
	}
	if len(pub.values) != 0 {
		t.Error("nothing must be published on failure")
	}
}

func TestCheckout_SuccessClearsCartAndPublishes(t *testing.T) {
	c := &mockCart{items: map[string]int{"p1": 3}}
	o := &mockOrders{created: &orders.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Status:     orders.StatusPending,
		TotalCents: 1500,
		Items:      []orders.Item{{ProductID: "p1", Qty: 3, PriceCents: 500}},
	}}
	pub := &mockPublisher{}
	svc := &Service{Cart: c, Orders: o, Producer: pub, ServiceName: "test"}

	got, err := svc.Checkout(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "order-1" || got.TotalCents != 1500 {
		t.Errorf("unexpected order: %+v", got)
	}
	if !c.cleared {
		t.Error("cart must be cleared after commit")
	}
	if len(pub.values) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.values))
	}

	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(pub.values[0], &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.EventType != orders.EventOrderCreated {
		t.Errorf("expected %s event, got %s", orders.EventOrderCreated, env.EventType)
	}
	payload, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.OrderID != "order-1" || payload.TotalCents != 1500 || len(payload.Items) != 1 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}
